package buffer

import (
	"testing"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type TestSuite struct{}

var _ = Suite(&TestSuite{})

func (s *TestSuite) TestAppendPrepend(c *C) {
	b := New(0)
	b.AppendString("world")
	b.Prepend([]byte("hello "))
	b.AppendByte('!')
	c.Assert(string(b.Bytes()), Equals, "hello world!")
	c.Assert(b.Len(), Equals, 12)

	b.Prepend(nil)
	c.Assert(b.Len(), Equals, 12)
}

func (s *TestSuite) TestGrowKeepsContent(c *C) {
	b := New(2)
	for i := 0; i < 1000; i++ {
		b.AppendByte(byte(i))
	}
	c.Assert(b.Len(), Equals, 1000)
	for i, v := range b.Bytes() {
		c.Assert(v, Equals, byte(i))
	}
}

func (s *TestSuite) TestConsume(c *C) {
	b := New(0)
	b.AppendString("abcdef")

	b.ConsumeFront(2)
	c.Assert(string(b.Bytes()), Equals, "cdef")

	b.ConsumeBack(1)
	c.Assert(string(b.Bytes()), Equals, "cde")

	b.ConsumeFront(3)
	c.Assert(b.Len(), Equals, 0)

	c.Assert(func() { b.ConsumeFront(1) }, PanicMatches, "buffer: consume front 1 of 0 bytes")
	c.Assert(func() { b.ConsumeBack(1) }, PanicMatches, "buffer: consume back 1 of 0 bytes")
}

func (s *TestSuite) TestStealAndClear(c *C) {
	b := New(0)
	b.AppendString("data")

	data := b.Steal()
	c.Assert(string(data), Equals, "data")
	c.Assert(b.Len(), Equals, 0)

	b.AppendString("more")
	c.Assert(string(data), Equals, "data")
	b.Clear()
	c.Assert(b.Len(), Equals, 0)
}
