package packet

import (
	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/wire"
)

// Request is a client to server packet body.
type Request interface {
	Kind() Kind
	encode(enc *wire.Encoder)
}

type NullRequest struct{}

type SetCwdRequest struct {
	Path string
}

type UpCwdRequest struct {
	Levels uint32
}

// OpenDirRequest opens a listing of the current working directory.
type OpenDirRequest struct{}

type ReadDirRequest struct {
	Handle Handle
}

type StatRequest struct {
	Path string
}

type OpenFileRequest struct {
	Path string
}

type ReadFileRequest struct {
	Handle Handle
	Length uint32
}

type SeekRequest struct {
	Handle Handle
	Origin SeekOrigin
	Amount uint64
}

type CloseRequest struct {
	Handle Handle
}

type CloseAllRequest struct{}

type SetOptionRequest struct {
	Name  string
	Value string
}

type AuthInitRequest struct {
	Method string
}

type AuthenticateRequest struct {
	Handle   Handle
	User     string
	Password string
}

// DiscoveryQuery is broadcast as a single datagram.
type DiscoveryQuery struct {
	Version string
}

func (NullRequest) Kind() Kind         { return KindNull }
func (SetCwdRequest) Kind() Kind       { return KindSetCwd }
func (UpCwdRequest) Kind() Kind        { return KindUpCwd }
func (OpenDirRequest) Kind() Kind      { return KindOpenDir }
func (ReadDirRequest) Kind() Kind      { return KindReadDir }
func (StatRequest) Kind() Kind         { return KindStat }
func (OpenFileRequest) Kind() Kind     { return KindOpenFile }
func (ReadFileRequest) Kind() Kind     { return KindReadFile }
func (SeekRequest) Kind() Kind         { return KindSeek }
func (CloseRequest) Kind() Kind        { return KindClose }
func (CloseAllRequest) Kind() Kind     { return KindCloseAll }
func (SetOptionRequest) Kind() Kind    { return KindSetOption }
func (AuthInitRequest) Kind() Kind     { return KindAuthInit }
func (AuthenticateRequest) Kind() Kind { return KindAuthenticate }
func (DiscoveryQuery) Kind() Kind      { return KindDiscoveryQuery }

func (NullRequest) encode(*wire.Encoder)     {}
func (OpenDirRequest) encode(*wire.Encoder)  {}
func (CloseAllRequest) encode(*wire.Encoder) {}

func (r SetCwdRequest) encode(e *wire.Encoder) {
	e.PutString(r.Path)
}

func (r UpCwdRequest) encode(e *wire.Encoder) {
	e.PutUint32(r.Levels)
}

func (r ReadDirRequest) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
}

func (r StatRequest) encode(e *wire.Encoder) {
	e.PutString(r.Path)
}

func (r OpenFileRequest) encode(e *wire.Encoder) {
	e.PutString(r.Path)
}

func (r ReadFileRequest) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
	e.PutUint32(r.Length)
}

func (r SeekRequest) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
	e.PutByte(byte(r.Origin))
	e.PutUint64(r.Amount)
}

func (r CloseRequest) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
}

func (r SetOptionRequest) encode(e *wire.Encoder) {
	e.PutString(r.Name)
	e.PutString(r.Value)
}

func (r AuthInitRequest) encode(e *wire.Encoder) {
	e.PutString(r.Method)
}

func (r AuthenticateRequest) encode(e *wire.Encoder) {
	e.PutUint32(uint32(r.Handle))
	e.PutString(r.User)
	e.PutString(r.Password)
}

func (r DiscoveryQuery) encode(e *wire.Encoder) {
	e.PutString(r.Version)
}

// EncodeRequest returns the complete wire form of req, length prefix included.
func EncodeRequest(id ID, req Request) []byte {
	enc := wire.NewEncoder()
	enc.PutByte(byte(req.Kind()))
	enc.PutUint32(uint32(id))
	req.encode(enc)
	return enc.Finish()
}

// DecodeRequest parses a packet body (without the length prefix). It is the
// server side counterpart of EncodeRequest.
func DecodeRequest(body []byte) (ID, Request, error) {
	dec := wire.NewDecoder(body)
	kind, id, err := decodeHeader(dec)
	if err != nil {
		return 0, nil, err
	}

	var req Request
	switch kind {
	case KindNull:
		req = NullRequest{}
	case KindOpenDir:
		req = OpenDirRequest{}
	case KindCloseAll:
		req = CloseAllRequest{}
	case KindSetCwd:
		var r SetCwdRequest
		r.Path, err = dec.ReadString()
		req = r
	case KindUpCwd:
		var r UpCwdRequest
		r.Levels, err = dec.ReadUint32()
		req = r
	case KindReadDir:
		var r ReadDirRequest
		r.Handle, err = readHandle(dec)
		req = r
	case KindStat:
		var r StatRequest
		r.Path, err = dec.ReadString()
		req = r
	case KindOpenFile:
		var r OpenFileRequest
		r.Path, err = dec.ReadString()
		req = r
	case KindReadFile:
		req, err = decodeReadFile(dec)
	case KindSeek:
		req, err = decodeSeek(dec)
	case KindClose:
		var r CloseRequest
		r.Handle, err = readHandle(dec)
		req = r
	case KindSetOption:
		req, err = decodeSetOption(dec)
	case KindAuthInit:
		var r AuthInitRequest
		r.Method, err = dec.ReadString()
		req = r
	case KindAuthenticate:
		req, err = decodeAuthenticate(dec)
	case KindDiscoveryQuery:
		var r DiscoveryQuery
		r.Version, err = dec.ReadString()
		req = r
	default:
		return id, nil, errors.Wrapf(ErrUnknownKind, "request %v", kind)
	}
	if err != nil {
		return id, nil, errors.Wrapf(err, "failed to decode %v request", kind)
	}
	if err := dec.Done(); err != nil {
		return id, nil, errors.Wrapf(err, "failed to decode %v request", kind)
	}
	return id, req, nil
}

func decodeReadFile(dec *wire.Decoder) (Request, error) {
	var r ReadFileRequest
	var err error
	if r.Handle, err = readHandle(dec); err != nil {
		return nil, err
	}
	if r.Length, err = dec.ReadUint32(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeSeek(dec *wire.Decoder) (Request, error) {
	var r SeekRequest
	var err error
	if r.Handle, err = readHandle(dec); err != nil {
		return nil, err
	}
	origin, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Origin = SeekOrigin(origin)
	if r.Amount, err = dec.ReadUint64(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeSetOption(dec *wire.Decoder) (Request, error) {
	var r SetOptionRequest
	var err error
	if r.Name, err = dec.ReadString(); err != nil {
		return nil, err
	}
	if r.Value, err = dec.ReadString(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeAuthenticate(dec *wire.Decoder) (Request, error) {
	var r AuthenticateRequest
	var err error
	if r.Handle, err = readHandle(dec); err != nil {
		return nil, err
	}
	if r.User, err = dec.ReadString(); err != nil {
		return nil, err
	}
	if r.Password, err = dec.ReadString(); err != nil {
		return nil, err
	}
	return r, nil
}
