package cmd

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
	"github.com/urfave/cli"

	"github.com/ccxstream/xbmsp/pkg/config"
	"github.com/ccxstream/xbmsp/pkg/dataconn"
	"github.com/ccxstream/xbmsp/pkg/remote"
	"github.com/ccxstream/xbmsp/pkg/util"
)

// GlobalFlags are shared by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: config.DefaultPath(),
			Usage: "TOML file with client settings and server bookmarks",
		},
		cli.BoolFlag{
			Name: "debug",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Deadline for one request and its reply, overrides the config file",
		},
		cli.DurationFlag{
			Name: "connect-timeout",
		},
		cli.StringFlag{
			Name:  "user",
			Usage: "User to log in as, overrides the location",
		},
		cli.StringFlag{
			Name:   "password",
			EnvVar: "XBMSP_PASSWORD",
		},
		cli.StringFlag{
			Name:  "chunk-size",
			Usage: "Bytes asked for per read request, e.g. 32KiB",
		},
	}
}

func Commands() []cli.Command {
	return []cli.Command{
		DiscoverCmd(),
		LsCmd(),
		StatCmd(),
		CatCmd(),
		GetCmd(),
		SetOptionCmd(),
		PingCmd(),
		VersionCmd(),
	}
}

// SetUpLogging applies the logging flags.
func SetUpLogging(c *cli.Context) error {
	level := c.GlobalString("log-level")
	if c.GlobalBool("debug") {
		level = "debug"
	}
	return util.SetUpLogger(errWriter(c), level, util.DefaultComponent)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.LoadFrom(c.GlobalString("config"))
}

// resolveLocation accepts xbms:// URLs, host[:port]/path and @bookmark/path.
func resolveLocation(cfg *config.Config, arg string) (remote.Location, error) {
	if arg == "" {
		return remote.Location{}, errors.New("location is required")
	}
	if strings.HasPrefix(arg, "@") {
		name, rest, _ := strings.Cut(arg[1:], "/")
		loc, err := cfg.Server(name)
		if err != nil {
			return remote.Location{}, err
		}
		return loc.Join(rest), nil
	}
	if strings.Contains(arg, "://") {
		return remote.ParseURL(arg)
	}
	address, rest, _ := strings.Cut(arg, "/")
	host, port, err := util.ParseAddress(address, dataconn.DefaultPort)
	if err != nil {
		return remote.Location{}, err
	}
	return remote.Location{Host: host, Port: port}.Join("/" + rest), nil
}

func remoteOptions(c *cli.Context, cfg *config.Config) (remote.Options, error) {
	opts, err := cfg.RemoteOptions()
	if err != nil {
		return opts, err
	}
	if d := c.GlobalDuration("timeout"); d > 0 {
		opts.Session.CallTimeout = d
	}
	if d := c.GlobalDuration("connect-timeout"); d > 0 {
		opts.Session.ConnectTimeout = d
	}
	if s := c.GlobalString("chunk-size"); s != "" {
		chunk, err := units.RAMInBytes(s)
		if err != nil {
			return opts, errors.Wrap(err, "invalid chunk size")
		}
		if chunk <= 0 || chunk > remote.MaxReadChunk {
			return opts, errors.Errorf("chunk size %v outside 1B..%v", s, units.BytesSize(remote.MaxReadChunk))
		}
		opts.ReadChunk = uint32(chunk)
	}
	return opts, nil
}

// dial connects to the location named by the command's first argument.
func dial(c *cli.Context) (*remote.Client, remote.Location, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, remote.Location{}, err
	}
	loc, err := resolveLocation(cfg, c.Args().First())
	if err != nil {
		return nil, remote.Location{}, err
	}
	if user := c.GlobalString("user"); user != "" {
		loc.User = user
	}
	if password := c.GlobalString("password"); password != "" {
		loc.Password = password
	}
	opts, err := remoteOptions(c, cfg)
	if err != nil {
		return nil, loc, err
	}
	client, err := remote.Dial(loc, opts)
	if err != nil {
		return nil, loc, errors.Wrapf(err, "cannot connect to %v", loc.Address())
	}
	return client, loc, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
