package packet

import (
	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/wire"
)

// DecodeDatagram parses one discovery datagram. The length prefix must
// account for exactly the rest of the datagram.
func DecodeDatagram(b []byte) (ID, *DiscoveryReply, error) {
	length, err := wire.PacketLength(b)
	if err != nil {
		return 0, nil, err
	}
	if err := wire.CheckPacketLength(length, HeaderSize); err != nil {
		return 0, nil, err
	}
	if int(length) != len(b)-wire.LengthSize {
		return 0, nil, errors.Wrapf(wire.ErrTrailingBytes, "datagram of %d bytes declares %d", len(b), length)
	}
	id, reply, err := DecodeReply(b[wire.LengthSize:])
	if err != nil {
		return id, nil, err
	}
	r, ok := reply.(DiscoveryReply)
	if !ok {
		return id, nil, errors.Wrapf(ErrUnknownKind, "unexpected %v reply in datagram", reply.Kind())
	}
	return id, &r, nil
}
