package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func PingCmd() cli.Command {
	return cli.Command{
		Name:      "ping",
		Usage:     "Measure round trips to a server",
		ArgsUsage: "<location>",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "count",
				Value: 3,
			},
		},
		Action: func(c *cli.Context) {
			if err := ping(c); err != nil {
				logrus.WithError(err).Fatalf("Error running ping command")
			}
		},
	}
}

func ping(c *cli.Context) error {
	client, loc, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	for i := 0; i < c.Int("count"); i++ {
		start := time.Now()
		if err := client.Session().Null(); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%v: seq=%d time=%v\n", loc.Address(), i, time.Since(start).Round(time.Microsecond))
	}
	return nil
}
