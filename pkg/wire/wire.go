package wire

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	// MaxPacketSize bounds the length prefix accepted from a peer, and
	// therefore every allocation driven by peer-supplied lengths.
	MaxPacketSize = 0x20000

	// LengthSize is the size of the packet length prefix.
	LengthSize = 4
)

var (
	ErrShortBuffer   = errors.New("wire: declared length exceeds remaining bytes")
	ErrTooLarge      = errors.New("wire: length exceeds maximum packet size")
	ErrTrailingBytes = errors.New("wire: unexpected trailing bytes")
)

// CheckPacketLength validates a length prefix received from the peer.
// min is the smallest body the caller can make sense of.
func CheckPacketLength(length uint32, min int) error {
	if length > MaxPacketSize {
		return errors.Wrapf(ErrTooLarge, "packet length %d", length)
	}
	if int(length) < min {
		return errors.Wrapf(ErrShortBuffer, "packet length %d below minimum %d", length, min)
	}
	return nil
}

// PacketLength decodes the 4-byte length prefix at the start of b.
func PacketLength(b []byte) (uint32, error) {
	if len(b) < LengthSize {
		return 0, errors.Wrapf(ErrShortBuffer, "length prefix needs %d bytes, have %d", LengthSize, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}
