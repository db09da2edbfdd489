package packet

import (
	"testing"
)

func FuzzDecodeReply(f *testing.F) {
	f.Add(EncodeReply(1<<12, FileDataReply{Name: "a", Info: "b"})[4:])
	f.Add(EncodeReply(2<<12, ErrorReply{Code: ErrorFailure, Message: "x"})[4:])
	f.Add(EncodeReply(3<<12, FileContentsReply{Data: []byte("data")})[4:])
	f.Add([]byte{byte(KindFileContents), 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, reply, err := DecodeReply(data)
		if err == nil && reply == nil {
			t.Fatal("nil reply without error")
		}
	})
}

func FuzzDecodeDatagram(f *testing.F) {
	f.Add(EncodeReply(1<<12, DiscoveryReply{Address: "1.2.3.4", Port: "1400"}))
	f.Add([]byte{0, 0, 0, 5, byte(KindDiscoveryReply), 0, 0, 0, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _, _ = DecodeDatagram(data)
	})
}
