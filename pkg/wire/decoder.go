package wire

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Decoder reads fields from an immutable byte slice through a cursor.
// Nothing is ever read past the end of the slice.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns the number of unread bytes.
func (dec *Decoder) Remaining() int {
	return len(dec.buf) - dec.pos
}

func (dec *Decoder) take(n int) ([]byte, error) {
	if n > dec.Remaining() {
		return nil, errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, dec.pos, dec.Remaining())
	}
	b := dec.buf[dec.pos : dec.pos+n]
	dec.pos += n
	return b, nil
}

func (dec *Decoder) ReadByte() (byte, error) {
	b, err := dec.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (dec *Decoder) ReadUint32() (uint32, error) {
	b, err := dec.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (dec *Decoder) ReadUint64() (uint64, error) {
	b, err := dec.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadBytes reads a length-prefixed byte string into a fresh slice. The
// declared length is checked against the maximum packet size and against the
// remaining input before anything is allocated.
func (dec *Decoder) ReadBytes() ([]byte, error) {
	l, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}
	if l > MaxPacketSize {
		return nil, errors.Wrapf(ErrTooLarge, "string length %d", l)
	}
	b, err := dec.take(int(l))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (dec *Decoder) ReadString() (string, error) {
	b, err := dec.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Done reports an error if any input is left unread.
func (dec *Decoder) Done() error {
	if r := dec.Remaining(); r != 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes left", r)
	}
	return nil
}
