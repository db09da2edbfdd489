package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ccxstream/xbmsp/pkg/meta"
)

func VersionCmd() cli.Command {
	return cli.Command{
		Name:      "version",
		Usage:     "Print the client version, and a server's version line when given a location",
		ArgsUsage: "[location]",
		Action: func(c *cli.Context) {
			if err := version(c); err != nil {
				logrus.Fatalln("Error running version command:", err)
			}
		},
	}
}

type VersionOutput struct {
	ClientVersion *meta.VersionOutput `json:"clientVersion"`
	ServerVersion string              `json:"serverVersion,omitempty"`
}

func version(c *cli.Context) error {
	v := VersionOutput{ClientVersion: meta.GetVersion()}

	if c.NArg() > 0 {
		client, _, err := dial(c)
		if err != nil {
			return err
		}
		defer client.Close()
		v.ServerVersion = client.Session().ServerVersion()
	}
	output, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, string(output))
	return nil
}
