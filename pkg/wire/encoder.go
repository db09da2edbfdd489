package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/ccxstream/xbmsp/pkg/buffer"
)

// Encoder builds one packet body. Values that cannot be represented on the
// wire are programming errors and panic.
type Encoder struct {
	buf *buffer.Buffer
}

func NewEncoder() *Encoder {
	return &Encoder{buf: buffer.New(64)}
}

func (enc *Encoder) PutByte(b byte) {
	enc.buf.AppendByte(b)
}

func (enc *Encoder) PutUint32(d uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], d)
	enc.buf.Append(b[:])
}

func (enc *Encoder) PutUint64(d uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], d)
	enc.buf.Append(b[:])
}

func (enc *Encoder) PutString(s string) {
	enc.putLength(len(s))
	enc.buf.AppendString(s)
}

func (enc *Encoder) PutBytes(p []byte) {
	enc.putLength(len(p))
	enc.buf.Append(p)
}

func (enc *Encoder) putLength(l int) {
	if l > MaxPacketSize {
		panic(fmt.Sprintf("wire: string of %d bytes exceeds packet size", l))
	}
	enc.PutUint32(uint32(l))
}

func (enc *Encoder) Len() int {
	return enc.buf.Len()
}

// EncodePacketLength prepends the total length of everything written so far.
func (enc *Encoder) EncodePacketLength() {
	l := enc.buf.Len()
	if l > MaxPacketSize {
		panic(fmt.Sprintf("wire: packet of %d bytes exceeds maximum", l))
	}
	var b [LengthSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(l))
	enc.buf.Prepend(b[:])
}

// Finish prepends the length prefix and returns the complete packet. The
// encoder is empty afterwards.
func (enc *Encoder) Finish() []byte {
	enc.EncodePacketLength()
	return enc.buf.Steal()
}
