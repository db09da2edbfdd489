package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ccxstream/xbmsp/app/cmd"
	"github.com/ccxstream/xbmsp/pkg/meta"
)

// Following variables are filled in by the build
var (
	Version   = "dev"
	GitCommit string
	BuildDate string
)

func main() {
	meta.Version = Version
	meta.GitCommit = GitCommit
	meta.BuildDate = BuildDate

	a := cli.NewApp()
	a.Name = "xbmsp"
	a.Usage = "Browse and fetch files from XBMSP media servers"
	a.Version = Version
	a.Before = cmd.SetUpLogging
	a.Flags = cmd.GlobalFlags()
	a.Commands = cmd.Commands()
	if err := a.Run(os.Args); err != nil {
		logrus.Fatal("Error when executing command: ", err)
	}
}
