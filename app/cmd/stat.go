package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func StatCmd() cli.Command {
	return cli.Command{
		Name:      "stat",
		Usage:     "Show the attributes of a remote file or directory",
		ArgsUsage: "<location>",
		Action: func(c *cli.Context) {
			if err := stat(c); err != nil {
				logrus.WithError(err).Fatalf("Error running stat command")
			}
		},
	}
}

func stat(c *cli.Context) error {
	client, loc, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	e, err := client.Stat(loc.Path)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Name: %v\n", e.Name())
	fmt.Fprintf(w, "Type: %v\n", map[bool]string{true: "directory", false: "file"}[e.IsDir()])
	fmt.Fprintf(w, "Size: %v (%v)\n", e.Size(), formatSize(e, false))
	fmt.Fprintf(w, "Modified: %v\n", formatTime(e.ModTime()))
	return nil
}
