package wire

import (
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type TestSuite struct{}

var _ = Suite(&TestSuite{})

func (s *TestSuite) TestRoundTrip(c *C) {
	enc := NewEncoder()
	enc.PutByte(0x7f)
	enc.PutUint32(0xdeadbeef)
	enc.PutUint64(0x0102030405060708)
	enc.PutString("/music")
	enc.PutBytes(nil)
	packet := enc.Finish()

	length, err := PacketLength(packet)
	c.Assert(err, IsNil)
	c.Assert(int(length), Equals, len(packet)-LengthSize)
	c.Assert(enc.Len(), Equals, 0)

	dec := NewDecoder(packet[LengthSize:])
	b, err := dec.ReadByte()
	c.Assert(err, IsNil)
	c.Assert(b, Equals, byte(0x7f))
	u32, err := dec.ReadUint32()
	c.Assert(err, IsNil)
	c.Assert(u32, Equals, uint32(0xdeadbeef))
	u64, err := dec.ReadUint64()
	c.Assert(err, IsNil)
	c.Assert(u64, Equals, uint64(0x0102030405060708))
	str, err := dec.ReadString()
	c.Assert(err, IsNil)
	c.Assert(str, Equals, "/music")
	empty, err := dec.ReadBytes()
	c.Assert(err, IsNil)
	c.Assert(len(empty), Equals, 0)
	c.Assert(dec.Done(), IsNil)
}

func (s *TestSuite) TestStringLongerThanInput(c *C) {
	payload := make([]byte, 4, 8)
	binary.BigEndian.PutUint32(payload, 10)
	payload = append(payload, "abc"...)

	dec := NewDecoder(payload)
	_, err := dec.ReadString()
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
}

func (s *TestSuite) TestStringLongerThanMaxPacket(c *C) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, MaxPacketSize+1)

	dec := NewDecoder(payload)
	_, err := dec.ReadBytes()
	c.Assert(errors.Is(err, ErrTooLarge), Equals, true)
}

func (s *TestSuite) TestShortIntegers(c *C) {
	dec := NewDecoder([]byte{1, 2, 3})
	_, err := dec.ReadUint32()
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
	c.Assert(dec.Remaining(), Equals, 3)

	_, err = dec.ReadUint64()
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)

	_, err = NewDecoder(nil).ReadByte()
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
}

func (s *TestSuite) TestTrailingBytes(c *C) {
	dec := NewDecoder([]byte{1, 2})
	_, err := dec.ReadByte()
	c.Assert(err, IsNil)
	c.Assert(errors.Is(dec.Done(), ErrTrailingBytes), Equals, true)
}

func (s *TestSuite) TestCheckPacketLength(c *C) {
	c.Assert(CheckPacketLength(5, 5), IsNil)
	c.Assert(CheckPacketLength(MaxPacketSize, 5), IsNil)
	c.Assert(errors.Is(CheckPacketLength(MaxPacketSize+1, 5), ErrTooLarge), Equals, true)
	c.Assert(errors.Is(CheckPacketLength(4, 5), ErrShortBuffer), Equals, true)

	_, err := PacketLength([]byte{0, 0})
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
}

func (s *TestSuite) TestEncoderRejectsOversizedString(c *C) {
	enc := NewEncoder()
	c.Assert(func() { enc.PutBytes(make([]byte, MaxPacketSize+1)) }, PanicMatches, "wire: string of .* exceeds packet size")
}
