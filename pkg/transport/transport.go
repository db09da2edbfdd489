package transport

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	readBufferSize  = 8096
	writeBufferSize = 8096
)

var (
	ErrNotFound         = errors.New("server not found")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("i/o timeout")
	ErrBroken           = errors.New("connection is no longer usable")
)

// Conn is one stream connection to a server. Any failed or timed out I/O
// leaves it broken; partial reads are never resumed.
type Conn struct {
	conn   net.Conn
	writer *bufio.Writer
	reader *bufio.Reader
	broken atomic.Bool
	closed atomic.Bool
}

// Dial connects to host:port within timeout. Name resolution failures are
// marked with ErrNotFound, everything else with ErrConnectionFailed.
func Dial(host string, port int, timeout time.Duration) (*Conn, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, errors.Mark(errors.Wrapf(err, "cannot resolve %v", host), ErrNotFound)
		}
		return nil, errors.Mark(errors.Wrapf(err, "cannot connect to %v", address), ErrConnectionFailed)
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection. Send coalescing is disabled
// since the traffic is small request/reply packets.
func NewConn(conn net.Conn) *Conn {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			logrus.WithError(err).Warnf("Failed to disable send coalescing for %v", conn.RemoteAddr())
		}
	}
	return &Conn{
		conn:   conn,
		writer: bufio.NewWriterSize(conn, writeBufferSize),
		reader: bufio.NewReaderSize(conn, readBufferSize),
	}
}

func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Broken reports whether an earlier I/O failure made the connection unusable.
func (c *Conn) Broken() bool {
	return c.broken.Load()
}

// WriteAll writes b completely before deadline.
func (c *Conn) WriteAll(b []byte, deadline time.Time) error {
	if c.Broken() {
		return ErrBroken
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return c.fail(err, "failed to set write deadline")
	}
	if _, err := c.writer.Write(b); err != nil {
		return c.fail(err, "failed to write %d bytes", len(b))
	}
	if err := c.writer.Flush(); err != nil {
		return c.fail(err, "failed to write %d bytes", len(b))
	}
	return nil
}

// ReadExact reads exactly n bytes before deadline.
func (c *Conn) ReadExact(n int, deadline time.Time) ([]byte, error) {
	if c.Broken() {
		return nil, ErrBroken
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, c.fail(err, "failed to set read deadline")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(c.reader, b); err != nil {
		return nil, c.fail(err, "failed to read %d bytes", n)
	}
	return b, nil
}

// ReadByteBefore reads a single byte before deadline.
func (c *Conn) ReadByteBefore(deadline time.Time) (byte, error) {
	b, err := c.ReadExact(1, deadline)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Conn) fail(err error, format string, args ...interface{}) error {
	c.broken.Store(true)
	err = errors.Wrapf(err, format, args...)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Mark(err, ErrTimeout)
	}
	return err
}

// Close tears the connection down. It may be called from another goroutine
// to abort blocked I/O, and more than once.
func (c *Conn) Close() error {
	c.broken.Store(true)
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
