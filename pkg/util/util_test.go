package util

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type TestSuite struct {
}

var _ = Suite(&TestSuite{})

func (s *TestSuite) TestParseAddress(c *C) {
	host, port, err := ParseAddress("media.local:1401", 1400)
	c.Assert(err, IsNil)
	c.Assert(host, Equals, "media.local")
	c.Assert(port, Equals, 1401)

	host, port, err = ParseAddress("10.0.0.2", 1400)
	c.Assert(err, IsNil)
	c.Assert(host, Equals, "10.0.0.2")
	c.Assert(port, Equals, 1400)

	host, port, err = ParseAddress("[fe80::1]:1500", 1400)
	c.Assert(err, IsNil)
	c.Assert(host, Equals, "fe80::1")
	c.Assert(port, Equals, 1500)

	for _, address := range []string{"", "host:port", "host:0", "host:70000", "a:b:c:d"} {
		_, _, err := ParseAddress(address, 1400)
		c.Assert(err, NotNil, Commentf("%q", address))
	}
}

func (s *TestSuite) TestFormatter(c *C) {
	out := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(Formatter{
		TextFormatter: &logrus.TextFormatter{DisableColors: true, DisableTimestamp: true},
		Component:     "xbmsp",
	})

	logger.Info("hello")
	c.Assert(out.String(), Equals, "[xbmsp] level=info msg=hello\n")

	out.Reset()
	logger.WithField(LogComponentField, "discovery").Info("found server")
	c.Assert(out.String(), Equals, "[discovery] found server\n")

	out.Reset()
	logger.WithField(LogComponentField, 7).Info("bad")
	c.Assert(out.String(), Equals, "")
}

func (s *TestSuite) TestSetUpLogger(c *C) {
	defer func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}()

	out := &bytes.Buffer{}
	c.Assert(SetUpLogger(out, "debug", ""), IsNil)
	c.Assert(logrus.GetLevel(), Equals, logrus.DebugLevel)
	logrus.Debug("traced")
	c.Assert(out.String(), Matches, `\[xbmsp\] time=.* level=debug msg=traced\n`)

	c.Assert(SetUpLogger(out, "loud", ""), ErrorMatches, `invalid log level "loud".*`)
}
