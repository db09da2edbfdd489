package handshake

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	// MaxLineLength bounds the server's version line.
	MaxLineLength = 2048

	ProtocolVersion = "1.0"
	DefaultBanner   = "xbmsp-go client"
)

var ErrHandshake = errors.New("handshake failed")

// LineConn is the part of a transport the handshake needs.
type LineConn interface {
	ReadByteBefore(deadline time.Time) (byte, error)
	WriteAll(b []byte, deadline time.Time) error
}

// ParseVersionLine returns the comma separated version list, the second
// space delimited field of the server line.
func ParseVersionLine(line string) ([]string, error) {
	fields := strings.SplitN(strings.TrimRight(line, "\r\n"), " ", 3)
	if len(fields) < 2 || fields[1] == "" {
		return nil, errors.Mark(errors.Newf("malformed version line %q", line), ErrHandshake)
	}
	return strings.Split(fields[1], ","), nil
}

// Supports reports whether version appears in the server line.
func Supports(line, version string) bool {
	versions, err := ParseVersionLine(line)
	if err != nil {
		return false
	}
	for _, v := range versions {
		if strings.TrimSpace(v) == version {
			return true
		}
	}
	return false
}

// ClientLine is the announcement sent once the server's versions are accepted.
func ClientLine(version, banner string) string {
	return fmt.Sprintf("XBMSP-%s %s %s\n", version, version, banner)
}

// Negotiate reads the server's version line and answers with the client's
// own. It must run before any packet is exchanged; on failure the connection
// has to be dropped.
func Negotiate(conn LineConn, version, banner string, deadline time.Time) (string, error) {
	line, err := readLine(conn, deadline)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to read server version line"), ErrHandshake)
	}
	logrus.Debugf("Server version line: %q", line)

	if !Supports(line, version) {
		if _, err := ParseVersionLine(line); err != nil {
			return line, err
		}
		return line, errors.Mark(errors.Newf("server does not offer protocol version %v: %q", version, line), ErrHandshake)
	}

	if err := conn.WriteAll([]byte(ClientLine(version, banner)), deadline); err != nil {
		return line, errors.Mark(errors.Wrap(err, "failed to send client version line"), ErrHandshake)
	}
	return line, nil
}

func readLine(conn LineConn, deadline time.Time) (string, error) {
	var sb strings.Builder
	for sb.Len() < MaxLineLength {
		b, err := conn.ReadByteBefore(deadline)
		if err != nil {
			return "", err
		}
		switch b {
		case '\n':
			return sb.String(), nil
		case '\r':
			continue
		}
		sb.WriteByte(b)
	}
	return "", errors.Newf("version line longer than %d bytes", MaxLineLength)
}
