package dataconn

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/packet"
	"github.com/ccxstream/xbmsp/pkg/transport"
	"github.com/ccxstream/xbmsp/pkg/wire"
)

// Wire moves whole packets over a transport connection.
type Wire struct {
	conn *transport.Conn
}

func NewWire(conn *transport.Conn) *Wire {
	return &Wire{conn: conn}
}

func (w *Wire) Write(b []byte, deadline time.Time) error {
	return w.conn.WriteAll(b, deadline)
}

// Read reads one reply: the length prefix, then exactly that many bytes.
// The length is validated before the body is allocated.
func (w *Wire) Read(deadline time.Time) (packet.ID, packet.Reply, error) {
	header, err := w.conn.ReadExact(wire.LengthSize, deadline)
	if err != nil {
		return 0, nil, err
	}
	length, err := wire.PacketLength(header)
	if err != nil {
		return 0, nil, err
	}
	if err := wire.CheckPacketLength(length, packet.HeaderSize); err != nil {
		return 0, nil, err
	}
	body, err := w.conn.ReadExact(int(length), deadline)
	if err != nil {
		return 0, nil, err
	}
	id, reply, err := packet.DecodeReply(body)
	if err != nil {
		return id, nil, errors.Wrap(err, "malformed reply")
	}
	return id, reply, nil
}

func (w *Wire) Close() error {
	return w.conn.Close()
}
