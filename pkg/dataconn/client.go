package dataconn

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccxstream/xbmsp/pkg/handshake"
	"github.com/ccxstream/xbmsp/pkg/packet"
	"github.com/ccxstream/xbmsp/pkg/transport"
)

// Session is a synchronous protocol session on one connection. It has at
// most one request outstanding and must be used by one caller at a time.
type Session struct {
	wire     *Wire
	opts     Options
	seq      uint32
	peerAddr string
	server   string
	err      error
}

// Connect dials the server, negotiates the protocol version and returns a
// ready session.
func Connect(host string, port int, opts Options) (*Session, error) {
	conn, err := transport.Dial(host, port, opts.ConnectTimeout)
	if err != nil {
		return nil, errors.Mark(err, ErrFatal)
	}

	deadline := time.Now().Add(opts.CallTimeout)
	line, err := handshake.Negotiate(conn, opts.Version, opts.Banner, deadline)
	if err != nil {
		conn.Close()
		return nil, errors.Mark(errors.Wrapf(err, "handshake with %v", conn.RemoteAddr()), ErrFatal)
	}
	logrus.WithFields(logrus.Fields{
		"server":  conn.RemoteAddr(),
		"version": line,
	}).Debug("Connected to server")

	s := NewSession(conn, opts)
	s.server = line
	return s, nil
}

// NewSession wraps a connection whose handshake is already done.
func NewSession(conn *transport.Conn, opts Options) *Session {
	return &Session{
		wire:     NewWire(conn),
		opts:     opts,
		peerAddr: conn.RemoteAddr(),
	}
}

func (s *Session) PeerAddr() string {
	return s.peerAddr
}

// ServerVersion returns the version line the server sent, empty for
// sessions built with NewSession.
func (s *Session) ServerVersion() string {
	return s.server
}

// Broken reports whether a fatal failure already happened.
func (s *Session) Broken() bool {
	return s.err != nil
}

// nextSeq returns a fresh request id: a 20 bit counter in the upper bits,
// never zero.
func (s *Session) nextSeq() packet.ID {
	s.seq = (s.seq + 1) & idMask
	if s.seq == 0 {
		s.seq = 1
	}
	return packet.ID(s.seq << idShift)
}

func (s *Session) fatal(err error, req packet.Request, id packet.ID) error {
	err = errors.Mark(err, ErrFatal)
	s.err = err
	logrus.WithError(err).WithFields(logrus.Fields{
		"server": s.peerAddr,
		"op":     req.Kind(),
		"id":     id,
	}).Error("Session failed")
	return err
}

// call runs one request and reply exchange under a single deadline. Error
// replies come back as *ProtocolError, everything else that goes wrong is
// fatal.
func (s *Session) call(req packet.Request) (packet.Reply, error) {
	if s.err != nil {
		return nil, errors.Wrapf(ErrBroken, "%v", req.Kind())
	}

	id := s.nextSeq()
	deadline := time.Now().Add(s.opts.CallTimeout)
	logrus.Debugf("Sending %v request id=%#x to %v", req.Kind(), id, s.peerAddr)

	if err := s.wire.Write(packet.EncodeRequest(id, req), deadline); err != nil {
		return nil, s.fatal(errors.Wrapf(err, "failed to send %v request", req.Kind()), req, id)
	}
	replyID, reply, err := s.wire.Read(deadline)
	if err != nil {
		return nil, s.fatal(errors.Wrapf(err, "failed to read %v reply", req.Kind()), req, id)
	}
	if replyID != id {
		return nil, s.fatal(errors.Wrapf(ErrIDMismatch, "%v reply id %#x, want %#x", reply.Kind(), replyID, id), req, id)
	}

	if e, ok := reply.(packet.ErrorReply); ok {
		return nil, &ProtocolError{Op: req.Kind(), Code: e.Code, Message: e.Message}
	}
	return reply, nil
}

func (s *Session) unexpected(req packet.Request, reply packet.Reply) error {
	return s.fatal(errors.Wrapf(ErrUnexpectedKind, "%v reply to %v request", reply.Kind(), req.Kind()), req, packet.ID(s.seq<<idShift))
}

func (s *Session) expectOK(req packet.Request) error {
	reply, err := s.call(req)
	if err != nil {
		return err
	}
	if _, ok := reply.(packet.OKReply); !ok {
		return s.unexpected(req, reply)
	}
	return nil
}

func (s *Session) expectHandle(req packet.Request) (packet.Handle, error) {
	reply, err := s.call(req)
	if err != nil {
		return 0, err
	}
	r, ok := reply.(packet.HandleReply)
	if !ok {
		return 0, s.unexpected(req, reply)
	}
	return r.Handle, nil
}

func (s *Session) expectFileData(req packet.Request) (string, string, error) {
	reply, err := s.call(req)
	if err != nil {
		return "", "", err
	}
	r, ok := reply.(packet.FileDataReply)
	if !ok {
		return "", "", s.unexpected(req, reply)
	}
	return r.Name, r.Info, nil
}

// Null is a no-op round trip.
func (s *Session) Null() error {
	return s.expectOK(packet.NullRequest{})
}

func (s *Session) SetCwd(path string) error {
	return s.expectOK(packet.SetCwdRequest{Path: path})
}

func (s *Session) UpCwd(levels uint32) error {
	return s.expectOK(packet.UpCwdRequest{Levels: levels})
}

// OpenDir opens a listing of the working directory.
func (s *Session) OpenDir() (packet.Handle, error) {
	return s.expectHandle(packet.OpenDirRequest{})
}

// ReadDir returns the next entry of a listing: its name and attribute text.
// An empty name means the listing is exhausted.
func (s *Session) ReadDir(h packet.Handle) (string, string, error) {
	return s.expectFileData(packet.ReadDirRequest{Handle: h})
}

// Stat returns the name and attribute text of a file in the working directory.
func (s *Session) Stat(path string) (string, string, error) {
	return s.expectFileData(packet.StatRequest{Path: path})
}

func (s *Session) OpenFile(path string) (packet.Handle, error) {
	return s.expectHandle(packet.OpenFileRequest{Path: path})
}

// ReadFile reads up to n bytes at the file's current position. An empty
// result means end of file.
func (s *Session) ReadFile(h packet.Handle, n uint32) ([]byte, error) {
	req := packet.ReadFileRequest{Handle: h, Length: n}
	reply, err := s.call(req)
	if err != nil {
		return nil, err
	}
	r, ok := reply.(packet.FileContentsReply)
	if !ok {
		return nil, s.unexpected(req, reply)
	}
	return r.Data, nil
}

func (s *Session) Seek(h packet.Handle, origin packet.SeekOrigin, amount uint64) error {
	return s.expectOK(packet.SeekRequest{Handle: h, Origin: origin, Amount: amount})
}

// Rewind positions the file offset bytes from its start.
func (s *Session) Rewind(h packet.Handle, offset uint64) error {
	return s.Seek(h, packet.SeekRewind, offset)
}

// SeekEnd positions the file delta bytes before its end.
func (s *Session) SeekEnd(h packet.Handle, delta uint64) error {
	return s.Seek(h, packet.SeekEnd, delta)
}

func (s *Session) Forward(h packet.Handle, delta uint64) error {
	return s.Seek(h, packet.SeekForward, delta)
}

func (s *Session) Backward(h packet.Handle, delta uint64) error {
	return s.Seek(h, packet.SeekBackward, delta)
}

func (s *Session) Close(h packet.Handle) error {
	return s.expectOK(packet.CloseRequest{Handle: h})
}

func (s *Session) CloseAll() error {
	return s.expectOK(packet.CloseAllRequest{})
}

func (s *Session) SetOption(name, value string) error {
	return s.expectOK(packet.SetOptionRequest{Name: name, Value: value})
}

func (s *Session) AuthInit(method string) (packet.Handle, error) {
	return s.expectHandle(packet.AuthInitRequest{Method: method})
}

// Authenticate submits credentials against an auth-init handle. A refusal
// is an ordinary *ProtocolError: servers may still allow anonymous access.
func (s *Session) Authenticate(h packet.Handle, user, password string) error {
	req := packet.AuthenticateRequest{Handle: h, User: user, Password: password}
	reply, err := s.call(req)
	if err != nil {
		return err
	}
	switch reply.(type) {
	case packet.OKReply:
		return nil
	case packet.AuthContinueReply:
		return &ProtocolError{Op: req.Kind(), Code: packet.ErrorUnsupported, Message: "multi-step authentication"}
	}
	return s.unexpected(req, reply)
}

// Login runs both authentication steps with the password method.
func (s *Session) Login(user, password string) error {
	h, err := s.AuthInit(AuthMethodPassword)
	if err != nil {
		return err
	}
	return s.Authenticate(h, user, password)
}

// Disconnect closes the connection. Calling it from another goroutine
// aborts a call in progress.
func (s *Session) Disconnect() error {
	return s.wire.Close()
}
