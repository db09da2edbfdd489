package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseAddress splits host[:port], using defaultPort when none is given.
func ParseAddress(address string, defaultPort int) (string, int, error) {
	if address == "" {
		return "", 0, errors.New("empty address")
	}
	host, strPort, err := net.SplitHostPort(address)
	if err != nil {
		if !strings.Contains(err.Error(), "missing port") {
			return "", 0, errors.Wrapf(err, "invalid address %v", address)
		}
		return strings.Trim(address, "[]"), defaultPort, nil
	}
	port, err := GetPort(strPort)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid address %v", address)
	}
	return host, port, nil
}

func GetPort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid port %q", s)
	}
	if port <= 0 || port > 65535 {
		return 0, errors.Errorf("port %d out of range", port)
	}
	return port, nil
}
