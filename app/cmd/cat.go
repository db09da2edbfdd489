package cmd

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func CatCmd() cli.Command {
	return cli.Command{
		Name:      "cat",
		Usage:     "Write a remote file, or a byte range of it, to stdout",
		ArgsUsage: "<location>",
		Flags: []cli.Flag{
			cli.Int64Flag{
				Name: "offset",
			},
			cli.Int64Flag{
				Name:  "length",
				Usage: "Bytes to write, all remaining when zero",
			},
		},
		Action: func(c *cli.Context) {
			if err := cat(c); err != nil {
				logrus.WithError(err).Fatalf("Error running cat command")
			}
		},
	}
}

func cat(c *cli.Context) error {
	offset, length := c.Int64("offset"), c.Int64("length")
	if offset < 0 || length < 0 {
		return errors.New("offset and length must not be negative")
	}

	client, loc, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := client.Open(loc.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return err
		}
	}
	var r io.Reader = f
	if length > 0 {
		r = io.LimitReader(f, length)
	}
	_, err = io.Copy(c.App.Writer, r)
	return err
}
