package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func SetOptionCmd() cli.Command {
	return cli.Command{
		Name:      "set-option",
		Usage:     "Set a server side session option",
		ArgsUsage: "<location> <name> <value>",
		Action: func(c *cli.Context) {
			if err := setOption(c); err != nil {
				logrus.WithError(err).Fatalf("Error running set-option command")
			}
		},
	}
}

func setOption(c *cli.Context) error {
	if c.NArg() != 3 {
		return errors.New("location, option name and value are required")
	}
	name, value := c.Args().Get(1), c.Args().Get(2)
	if name == "" {
		return errors.New("missing option name")
	}

	client, _, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Session().SetOption(name, value)
}
