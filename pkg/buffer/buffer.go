package buffer

import "fmt"

const minGrow = 64

// Buffer is a growable byte sequence that can be extended or consumed at
// either end. It is used to assemble outgoing packets.
type Buffer struct {
	data []byte
}

func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

func (b *Buffer) grow(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	size := 2*cap(b.data) + n
	if size < minGrow {
		size = minGrow
	}
	data := make([]byte, len(b.data), size)
	copy(data, b.data)
	b.data = data
}

func (b *Buffer) Append(p []byte) {
	b.grow(len(p))
	b.data = append(b.data, p...)
}

func (b *Buffer) AppendByte(c byte) {
	b.grow(1)
	b.data = append(b.data, c)
}

func (b *Buffer) AppendString(s string) {
	b.grow(len(s))
	b.data = append(b.data, s...)
}

// Prepend inserts p before the current content.
func (b *Buffer) Prepend(p []byte) {
	if len(p) == 0 {
		return
	}
	b.grow(len(p))
	n := len(b.data)
	b.data = b.data[:n+len(p)]
	copy(b.data[len(p):], b.data[:n])
	copy(b.data, p)
}

// ConsumeFront drops the first n bytes and moves the rest to offset zero.
// Consuming more than Len bytes is a programming error and panics.
func (b *Buffer) ConsumeFront(n int) {
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("buffer: consume front %d of %d bytes", n, len(b.data)))
	}
	m := copy(b.data, b.data[n:])
	b.data = b.data[:m]
}

// ConsumeBack drops the last n bytes. Consuming more than Len bytes panics.
func (b *Buffer) ConsumeBack(n int) {
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("buffer: consume back %d of %d bytes", n, len(b.data)))
	}
	b.data = b.data[:len(b.data)-n]
}

func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the contiguous content. The slice is only valid until the
// next modification of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Steal hands the storage over to the caller and leaves the buffer empty.
func (b *Buffer) Steal() []byte {
	data := b.data
	b.data = nil
	return data
}
