package dataconn

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/handshake"
	"github.com/ccxstream/xbmsp/pkg/packet"
)

const (
	DefaultPort           = 1400
	DefaultCallTimeout    = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second

	// AuthMethodPassword is the only authentication method servers offer.
	AuthMethodPassword = "password"

	idBits  = 20
	idShift = 12
	idMask  = 1<<idBits - 1
)

var (
	// ErrFatal marks every failure after which the session must be discarded.
	ErrFatal = errors.New("fatal session failure")

	ErrBroken         = errors.Mark(errors.New("session already failed"), ErrFatal)
	ErrIDMismatch     = errors.New("reply id does not match request")
	ErrUnexpectedKind = errors.New("unexpected reply kind")
)

type Options struct {
	ConnectTimeout time.Duration
	// CallTimeout bounds a whole request and reply exchange, and the
	// handshake.
	CallTimeout time.Duration
	Version     string
	Banner      string
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout: DefaultConnectTimeout,
		CallTimeout:    DefaultCallTimeout,
		Version:        handshake.ProtocolVersion,
		Banner:         handshake.DefaultBanner,
	}
}

// ProtocolError is an error reply from the server. The session stays usable.
type ProtocolError struct {
	Op      packet.Kind
	Code    packet.ErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: %v", e.Op, e.Code)
	}
	return fmt.Sprintf("%v: %v: %v", e.Op, e.Code, e.Message)
}

// IsFatal reports whether err requires the session to be discarded.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// ErrorCodeOf returns the server error code carried by err, if any.
func ErrorCodeOf(err error) (packet.ErrorCode, bool) {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return 0, false
}
