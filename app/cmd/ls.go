package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ccxstream/xbmsp/pkg/remote"
)

func LsCmd() cli.Command {
	return cli.Command{
		Name:      "ls",
		Usage:     "List a remote directory: ls <location>",
		ArgsUsage: "<location>",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "bytes",
				Usage: "Print exact sizes instead of human readable ones",
			},
		},
		Action: func(c *cli.Context) {
			if err := ls(c); err != nil {
				logrus.WithError(err).Fatalf("Error running ls command")
			}
		},
	}
}

func formatSize(e remote.Entry, exact bool) string {
	if e.IsDir() {
		return "-"
	}
	if exact {
		return fmt.Sprint(e.Size())
	}
	return units.HumanSize(float64(e.Size()))
}

func ls(c *cli.Context) error {
	client, loc, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.ReadDir(loc.Path)
	if err != nil {
		return err
	}

	format := "%s\t%s\t%s\t%s\n"
	tw := tabwriter.NewWriter(c.App.Writer, 0, 20, 1, ' ', 0)
	fmt.Fprintf(tw, format, "NAME", "TYPE", "SIZE", "MODIFIED")
	for _, e := range entries {
		kind := "file"
		if e.IsDir() {
			kind = "dir"
		}
		fmt.Fprintf(tw, format, e.Name(), kind, formatSize(e, c.Bool("bytes")), formatTime(e.ModTime()))
	}
	return tw.Flush()
}
