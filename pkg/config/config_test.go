package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "gopkg.in/check.v1"

	"github.com/ccxstream/xbmsp/pkg/dataconn"
	"github.com/ccxstream/xbmsp/pkg/discovery"
	"github.com/ccxstream/xbmsp/pkg/remote"
)

func Test(t *testing.T) { TestingT(t) }

type TestSuite struct {
	dir string
}

var _ = Suite(&TestSuite{})

func (s *TestSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
}

func (s *TestSuite) write(c *C, content string) string {
	p := filepath.Join(s.dir, "config.toml")
	c.Assert(os.WriteFile(p, []byte(content), 0600), IsNil)
	return p
}

func (s *TestSuite) TestMissingFile(c *C) {
	cfg, err := LoadFrom(filepath.Join(s.dir, "absent.toml"))
	c.Assert(err, IsNil)
	c.Assert(cfg.Servers, HasLen, 0)

	opts, err := cfg.RemoteOptions()
	c.Assert(err, IsNil)
	c.Assert(opts.Session.CallTimeout, Equals, dataconn.DefaultCallTimeout)
	c.Assert(opts.ReadChunk, Equals, uint32(remote.DefaultReadChunk))

	dopts, err := cfg.DiscoveryOptions()
	c.Assert(err, IsNil)
	c.Assert(dopts.Port, Equals, discovery.DefaultPort)
	c.Assert(dopts.Window, Equals, discovery.DefaultWindow)
}

func (s *TestSuite) TestLoad(c *C) {
	os.Setenv("XBMSP_TEST_PASSWORD", "hunter2")
	defer os.Unsetenv("XBMSP_TEST_PASSWORD")

	cfg, err := LoadFrom(s.write(c, `
[client]
connect-timeout = "2s"
call-timeout = "30s"
read-chunk = "32KiB"
banner = "living room"

[discovery]
port = 1401
broadcast = "192.168.1.255"
window = "2s"
wait = "500ms"

[servers.nas]
host = "nas.local"
user = "bob"
password = "${XBMSP_TEST_PASSWORD}"
path = "music/"

[servers.other]
host = "10.0.0.2"
port = 1500
password = "${XBMSP_TEST_UNSET}"
`))
	c.Assert(err, IsNil)

	opts, err := cfg.RemoteOptions()
	c.Assert(err, IsNil)
	c.Assert(opts.Session.ConnectTimeout, Equals, 2*time.Second)
	c.Assert(opts.Session.CallTimeout, Equals, 30*time.Second)
	c.Assert(opts.Session.Banner, Equals, "living room")
	c.Assert(opts.ReadChunk, Equals, uint32(32<<10))

	dopts, err := cfg.DiscoveryOptions()
	c.Assert(err, IsNil)
	c.Assert(dopts.Port, Equals, 1401)
	c.Assert(dopts.BroadcastAddr, Equals, "192.168.1.255")
	c.Assert(dopts.Window, Equals, 2*time.Second)
	c.Assert(dopts.Wait, Equals, 500*time.Millisecond)

	loc, err := cfg.Server("nas")
	c.Assert(err, IsNil)
	c.Assert(loc, DeepEquals, remote.Location{
		Host:     "nas.local",
		Port:     dataconn.DefaultPort,
		User:     "bob",
		Password: "hunter2",
		Path:     "/music",
	})

	loc, err = cfg.Server("other")
	c.Assert(err, IsNil)
	c.Assert(loc.Port, Equals, 1500)
	c.Assert(loc.Password, Equals, "${XBMSP_TEST_UNSET}")

	_, err = cfg.Server("missing")
	c.Assert(err, ErrorMatches, `unknown server "missing"`)
}

func (s *TestSuite) TestInvalid(c *C) {
	for _, content := range []string{
		"[client\n",
		"[client]\ncall-timeout = \"soon\"\n",
		"[client]\ncall-timeout = \"-1s\"\n",
		"[client]\nread-chunk = \"lots\"\n",
		"[client]\nread-chunk = \"1GiB\"\n",
		"[discovery]\nwait = \"0s\"\n",
		"[servers.x]\nport = 1400\n",
		"[servers.x]\nhost = \"h\"\nport = 70000\n",
	} {
		_, err := LoadFrom(s.write(c, content))
		c.Assert(err, NotNil, Commentf("%q", content))
	}
}
