// Package config loads client settings and server bookmarks from a TOML
// file.
package config

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"

	"github.com/ccxstream/xbmsp/pkg/dataconn"
	"github.com/ccxstream/xbmsp/pkg/discovery"
	"github.com/ccxstream/xbmsp/pkg/remote"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type Config struct {
	Client    ClientConfig            `toml:"client"`
	Discovery DiscoveryConfig         `toml:"discovery"`
	Servers   map[string]ServerConfig `toml:"servers"`
}

// ClientConfig holds session settings. Durations use time.ParseDuration
// syntax and sizes go-units syntax ("64KiB").
type ClientConfig struct {
	ConnectTimeout string `toml:"connect-timeout"`
	CallTimeout    string `toml:"call-timeout"`
	ReadChunk      string `toml:"read-chunk"`
	Banner         string `toml:"banner"`
}

type DiscoveryConfig struct {
	Port      int    `toml:"port"`
	Broadcast string `toml:"broadcast"`
	Window    string `toml:"window"`
	Wait      string `toml:"wait"`
}

// ServerConfig is a bookmark. Password may reference the environment as
// ${NAME}.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Path     string `toml:"path"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "xbmsp", "config.toml")
}

// LoadFrom reads the file at path. A missing file yields an empty config.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Servers: map[string]ServerConfig{}}, nil
		}
		return nil, errors.Wrap(err, "failed to read config")
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %v", path)
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]ServerConfig{}
	}
	for name, srv := range cfg.Servers {
		srv.User = expandEnvVars(srv.User)
		srv.Password = expandEnvVars(srv.Password)
		cfg.Servers[name] = srv
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %v", path)
	}
	return &cfg, nil
}

// expandEnvVars replaces ${NAME} with the variable's value. Unset variables
// are left as written.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func (c *Config) Validate() error {
	if _, err := c.RemoteOptions(); err != nil {
		return err
	}
	if _, err := c.DiscoveryOptions(); err != nil {
		return err
	}
	for name, srv := range c.Servers {
		if srv.Host == "" {
			return errors.Errorf("server %q: missing host", name)
		}
		if srv.Port < 0 || srv.Port > 65535 {
			return errors.Errorf("server %q: invalid port %d", name, srv.Port)
		}
	}
	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %v", field)
	}
	if d <= 0 {
		return 0, errors.Errorf("invalid %v: %v is not positive", field, value)
	}
	return d, nil
}

// RemoteOptions returns session and read settings, defaults filled in.
func (c *Config) RemoteOptions() (remote.Options, error) {
	opts := remote.DefaultOptions()
	var err error
	if opts.Session.ConnectTimeout, err = parseDuration("client.connect-timeout", c.Client.ConnectTimeout, dataconn.DefaultConnectTimeout); err != nil {
		return opts, err
	}
	if opts.Session.CallTimeout, err = parseDuration("client.call-timeout", c.Client.CallTimeout, dataconn.DefaultCallTimeout); err != nil {
		return opts, err
	}
	if c.Client.Banner != "" {
		opts.Session.Banner = c.Client.Banner
	}
	if c.Client.ReadChunk != "" {
		chunk, err := units.RAMInBytes(c.Client.ReadChunk)
		if err != nil {
			return opts, errors.Wrap(err, "invalid client.read-chunk")
		}
		if chunk <= 0 || chunk > remote.MaxReadChunk {
			return opts, errors.Errorf("invalid client.read-chunk: %v outside 1B..%v",
				c.Client.ReadChunk, units.BytesSize(remote.MaxReadChunk))
		}
		opts.ReadChunk = uint32(chunk)
	}
	return opts, nil
}

func (c *Config) DiscoveryOptions() (discovery.Options, error) {
	opts := discovery.DefaultOptions()
	var err error
	if c.Discovery.Port != 0 {
		opts.Port = c.Discovery.Port
	}
	if c.Discovery.Broadcast != "" {
		opts.BroadcastAddr = c.Discovery.Broadcast
	}
	if opts.Window, err = parseDuration("discovery.window", c.Discovery.Window, discovery.DefaultWindow); err != nil {
		return opts, err
	}
	if opts.Wait, err = parseDuration("discovery.wait", c.Discovery.Wait, discovery.DefaultWait); err != nil {
		return opts, err
	}
	return opts, nil
}

// Server returns the location of a bookmark.
func (c *Config) Server(name string) (remote.Location, error) {
	srv, ok := c.Servers[name]
	if !ok {
		return remote.Location{}, errors.Errorf("unknown server %q", name)
	}
	loc := remote.Location{
		Host:     srv.Host,
		Port:     srv.Port,
		User:     srv.User,
		Password: srv.Password,
		Path:     path.Clean("/" + srv.Path),
	}
	if loc.Port == 0 {
		loc.Port = dataconn.DefaultPort
	}
	return loc, nil
}
