package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ccxstream/xbmsp/pkg/discovery"
)

func DiscoverCmd() cli.Command {
	return cli.Command{
		Name:  "discover",
		Usage: "Find servers on the local network",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "port",
				Usage: "Discovery port, overrides the config file",
			},
			cli.StringFlag{
				Name: "broadcast",
			},
			cli.DurationFlag{
				Name:  "window",
				Usage: "How long to listen for answers",
			},
		},
		Action: func(c *cli.Context) {
			if err := discover(c); err != nil {
				logrus.WithError(err).Fatalf("Error running discover command")
			}
		},
	}
}

func discover(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := cfg.DiscoveryOptions()
	if err != nil {
		return err
	}
	if port := c.Int("port"); port != 0 {
		opts.Port = port
	}
	if addr := c.String("broadcast"); addr != "" {
		opts.BroadcastAddr = addr
	}
	if window := c.Duration("window"); window > 0 {
		opts.Window = window
	}

	format := "%s\t%s\t%s\t%s\n"
	tw := tabwriter.NewWriter(c.App.Writer, 0, 20, 1, ' ', 0)
	fmt.Fprintf(tw, format, "ADDRESS", "PORT", "VERSION", "COMMENT")
	err = discovery.Discover(opts, func(s discovery.Server) {
		fmt.Fprintf(tw, format, s.Address, s.Port, s.Version, s.Comment)
	})
	tw.Flush()
	return err
}
