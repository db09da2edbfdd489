package wire

import (
	"testing"
)

// FuzzReadBytes checks that arbitrary input never reads out of bounds and
// never yields more bytes than were supplied.
func FuzzReadBytes(f *testing.F) {
	f.Add([]byte{0, 0, 0, 3, 'a', 'b', 'c'})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})
	f.Add([]byte{0, 0, 0, 10, 'x'})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		dec := NewDecoder(data)
		b, err := dec.ReadBytes()
		if err != nil {
			if dec.Remaining() > len(data) {
				t.Fatalf("remaining %d exceeds input %d", dec.Remaining(), len(data))
			}
			return
		}
		if len(b)+4 > len(data) {
			t.Fatalf("decoded %d bytes from %d bytes of input", len(b), len(data))
		}
	})
}
