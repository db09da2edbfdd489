package packet

import (
	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/wire"
)

var ErrUnknownKind = errors.New("packet: unknown kind")

// Reply is a server to client packet body. Each kind is its own type that
// carries only the fields of that kind.
type Reply interface {
	Kind() Kind
	encode(enc *wire.Encoder)
}

type OKReply struct{}

type ErrorReply struct {
	Code    ErrorCode
	Message string
}

type HandleReply struct {
	Handle Handle
}

// FileDataReply answers read-dir and stat: an entry name plus its
// attribute text. An empty name ends a directory listing.
type FileDataReply struct {
	Name string
	Info string
}

type FileContentsReply struct {
	Data []byte
}

type AuthContinueReply struct{}

type DiscoveryReply struct {
	Address string
	Port    string
	Version string
	Comment string
}

func (OKReply) Kind() Kind           { return KindOK }
func (ErrorReply) Kind() Kind        { return KindError }
func (HandleReply) Kind() Kind       { return KindHandle }
func (FileDataReply) Kind() Kind     { return KindFileData }
func (FileContentsReply) Kind() Kind { return KindFileContents }
func (AuthContinueReply) Kind() Kind { return KindAuthContinue }
func (DiscoveryReply) Kind() Kind    { return KindDiscoveryReply }

func (OKReply) encode(*wire.Encoder)           {}
func (AuthContinueReply) encode(*wire.Encoder) {}

func (r ErrorReply) encode(e *wire.Encoder) {
	e.PutByte(byte(r.Code))
	e.PutString(r.Message)
}

func (r HandleReply) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
}

func (r FileDataReply) encode(e *wire.Encoder) {
	e.PutString(r.Name)
	e.PutString(r.Info)
}

func (r FileContentsReply) encode(e *wire.Encoder) {
	e.PutBytes(r.Data)
}

func (r DiscoveryReply) encode(e *wire.Encoder) {
	e.PutString(r.Address)
	e.PutString(r.Port)
	e.PutString(r.Version)
	e.PutString(r.Comment)
}

// EncodeReply returns the complete wire form of reply, length prefix included.
func EncodeReply(id ID, reply Reply) []byte {
	enc := wire.NewEncoder()
	enc.PutByte(byte(reply.Kind()))
	enc.PutUint32(uint32(id))
	reply.encode(enc)
	return enc.Finish()
}

// DecodeReply parses a packet body (without the length prefix). The kind tag
// is read first and the rest is decoded per kind; any byte left over is an
// error.
func DecodeReply(body []byte) (ID, Reply, error) {
	dec := wire.NewDecoder(body)
	kind, id, err := decodeHeader(dec)
	if err != nil {
		return 0, nil, err
	}

	var reply Reply
	switch kind {
	case KindOK:
		reply = OKReply{}
	case KindAuthContinue:
		reply = AuthContinueReply{}
	case KindError:
		reply, err = decodeError(dec)
	case KindHandle:
		var r HandleReply
		r.Handle, err = readHandle(dec)
		reply = r
	case KindFileData:
		reply, err = decodeFileData(dec)
	case KindFileContents:
		var r FileContentsReply
		r.Data, err = dec.ReadBytes()
		reply = r
	case KindDiscoveryReply:
		reply, err = decodeDiscoveryReply(dec)
	default:
		return id, nil, errors.Wrapf(ErrUnknownKind, "reply %v", kind)
	}
	if err != nil {
		return id, nil, errors.Wrapf(err, "failed to decode %v reply", kind)
	}
	if err := dec.Done(); err != nil {
		return id, nil, errors.Wrapf(err, "failed to decode %v reply", kind)
	}
	return id, reply, nil
}

func decodeError(dec *wire.Decoder) (Reply, error) {
	var r ErrorReply
	code, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Code = ErrorCode(code)
	// Some servers send the bare code.
	if dec.Remaining() == 0 {
		return r, nil
	}
	if r.Message, err = dec.ReadString(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeFileData(dec *wire.Decoder) (Reply, error) {
	var r FileDataReply
	var err error
	if r.Name, err = dec.ReadString(); err != nil {
		return nil, err
	}
	if r.Info, err = dec.ReadString(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeDiscoveryReply(dec *wire.Decoder) (Reply, error) {
	var r DiscoveryReply
	var err error
	for _, field := range []*string{&r.Address, &r.Port, &r.Version, &r.Comment} {
		if *field, err = dec.ReadString(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func decodeHeader(dec *wire.Decoder) (Kind, ID, error) {
	kind, err := dec.ReadByte()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to read packet kind")
	}
	id, err := dec.ReadUint32()
	if err != nil {
		return Kind(kind), 0, errors.Wrap(err, "failed to read packet id")
	}
	return Kind(kind), ID(id), nil
}

func readHandle(dec *wire.Decoder) (Handle, error) {
	h, err := dec.ReadUint32()
	return Handle(h), err
}
