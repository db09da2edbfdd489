// Package xbmsptest provides an in-process XBMSP server for tests.
package xbmsptest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccxstream/xbmsp/pkg/packet"
	"github.com/ccxstream/xbmsp/pkg/wire"
)

const (
	DefaultVersionLine = "XBMSP-1.0 1.0 xbmsptest server"

	maxRead = 0x10000
)

type entry struct {
	dir     bool
	data    []byte
	modTime time.Time
}

// Server serves an in-memory tree. Configure it before Start.
type Server struct {
	VersionLine string
	// Users maps user names to passwords accepted by authenticate.
	Users map[string]string
	// Intercept, when set and returning non-nil, replaces the encoded reply
	// for a request.
	Intercept func(id packet.ID, req packet.Request) []byte

	lock        sync.Mutex
	requireAuth bool
	entries     map[string]*entry
	options     map[string]string
	clientLines []string
	requests    []packet.Kind

	ln net.Listener
	wg sync.WaitGroup
}

func NewServer() *Server {
	return &Server{
		VersionLine: DefaultVersionLine,
		Users:       map[string]string{},
		entries: map[string]*entry{
			"/": {dir: true},
		},
		options: map[string]string{
			"CLIENT_STRING_CHARSET": "ISO-8859-1",
		},
	}
}

func (s *Server) AddDir(p string, modTime time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.addParents(p)
	s.entries[path.Clean("/"+p)] = &entry{dir: true, modTime: modTime}
}

func (s *Server) AddFile(p string, data []byte, modTime time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.addParents(p)
	s.entries[path.Clean("/"+p)] = &entry{data: data, modTime: modTime}
}

func (s *Server) addParents(p string) {
	for dir := path.Dir(path.Clean("/" + p)); dir != "/"; dir = path.Dir(dir) {
		if _, ok := s.entries[dir]; !ok {
			s.entries[dir] = &entry{dir: true}
		}
	}
}

// SetRequireAuth makes the server refuse every file system request on
// unauthenticated connections. It may be called while serving.
func (s *Server) SetRequireAuth(require bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.requireAuth = require
}

// Option returns a value stored by set-option.
func (s *Server) Option(name string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.options[name]
}

// ClientLines returns the version lines clients announced.
func (s *Server) ClientLines() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.clientLines...)
}

// Requests returns the kinds of all requests received so far.
func (s *Server) Requests() []packet.Kind {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]packet.Kind(nil), s.requests...)
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	s.ln = ln
	s.wg.Add(1)
	go s.accept()
	return nil
}

// Addr returns the host and port the server listens on.
func (s *Server) Addr() (string, int) {
	addr := s.ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// Close stops the listener and waits for open connections to end. It is
// safe to call on a server that never started.
func (s *Server) Close() {
	if s.ln == nil {
		return
	}
	s.ln.Close()
	s.wg.Wait()
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			if err := s.serve(conn); err != nil && err != io.EOF {
				logrus.WithError(err).Debug("xbmsptest: connection closed")
			}
		}()
	}
}

type openObject struct {
	names []string
	next  int
	data  []byte
	pos   int64
	dir   bool
}

type connState struct {
	cwd     string
	authed  bool
	handles map[packet.Handle]*openObject
	next    packet.Handle
}

func (s *Server) serve(conn net.Conn) error {
	reader := bufio.NewReader(conn)
	if _, err := io.WriteString(conn, s.VersionLine+"\n"); err != nil {
		return err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.clientLines = append(s.clientLines, strings.TrimRight(line, "\r\n"))
	s.lock.Unlock()

	st := &connState{cwd: "/", handles: map[packet.Handle]*openObject{}, next: 1}
	header := make([]byte, wire.LengthSize)
	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			return err
		}
		length, err := wire.PacketLength(header)
		if err != nil {
			return err
		}
		if err := wire.CheckPacketLength(length, packet.HeaderSize); err != nil {
			return err
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(reader, body); err != nil {
			return err
		}
		id, req, err := packet.DecodeRequest(body)
		if err != nil {
			return err
		}

		s.lock.Lock()
		s.requests = append(s.requests, req.Kind())
		s.lock.Unlock()

		var out []byte
		if s.Intercept != nil {
			out = s.Intercept(id, req)
		}
		if out == nil {
			out = packet.EncodeReply(id, s.handle(st, req))
		}
		if _, err := conn.Write(out); err != nil {
			return err
		}
	}
}

func fail(code packet.ErrorCode) packet.Reply {
	return packet.ErrorReply{Code: code, Message: code.String()}
}

func (s *Server) handle(st *connState, req packet.Request) packet.Reply {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch r := req.(type) {
	case packet.NullRequest:
		return packet.OKReply{}
	case packet.AuthInitRequest:
		if r.Method != "password" {
			return fail(packet.ErrorUnsupported)
		}
		return packet.HandleReply{Handle: st.open(&openObject{})}
	case packet.AuthenticateRequest:
		if _, ok := st.handles[r.Handle]; !ok {
			return fail(packet.ErrorInvalidHandle)
		}
		delete(st.handles, r.Handle)
		if pw, ok := s.Users[r.User]; !ok || pw != r.Password {
			return fail(packet.ErrorAuthenticationFailed)
		}
		st.authed = true
		return packet.OKReply{}
	case packet.SetOptionRequest:
		return s.setOption(r)
	case packet.CloseRequest:
		if _, ok := st.handles[r.Handle]; !ok {
			return fail(packet.ErrorInvalidHandle)
		}
		delete(st.handles, r.Handle)
		return packet.OKReply{}
	case packet.CloseAllRequest:
		st.handles = map[packet.Handle]*openObject{}
		return packet.OKReply{}
	}

	if s.requireAuth && !st.authed {
		return fail(packet.ErrorAuthenticationNeeded)
	}

	switch r := req.(type) {
	case packet.SetCwdRequest:
		p := s.resolve(st.cwd, r.Path)
		if e, ok := s.entries[p]; !ok || !e.dir {
			return fail(packet.ErrorNoSuchFile)
		}
		st.cwd = p
		return packet.OKReply{}
	case packet.UpCwdRequest:
		for i := uint32(0); i < r.Levels; i++ {
			st.cwd = path.Dir(st.cwd)
		}
		return packet.OKReply{}
	case packet.OpenDirRequest:
		return packet.HandleReply{Handle: st.open(&openObject{dir: true, names: s.children(st.cwd)})}
	case packet.ReadDirRequest:
		obj, ok := st.handles[r.Handle]
		if !ok || !obj.dir {
			return fail(packet.ErrorInvalidHandle)
		}
		if obj.next >= len(obj.names) {
			return packet.FileDataReply{}
		}
		name := obj.names[obj.next]
		obj.next++
		return packet.FileDataReply{Name: name, Info: formatAttributes(s.entries[path.Join(st.cwd, name)])}
	case packet.StatRequest:
		p := s.resolve(st.cwd, r.Path)
		e, ok := s.entries[p]
		if !ok {
			return fail(packet.ErrorNoSuchFile)
		}
		return packet.FileDataReply{Name: path.Base(p), Info: formatAttributes(e)}
	case packet.OpenFileRequest:
		e, ok := s.entries[s.resolve(st.cwd, r.Path)]
		if !ok {
			return fail(packet.ErrorNoSuchFile)
		}
		if e.dir {
			return fail(packet.ErrorInvalidFile)
		}
		return packet.HandleReply{Handle: st.open(&openObject{data: e.data})}
	case packet.ReadFileRequest:
		obj, ok := st.handles[r.Handle]
		if !ok || obj.dir {
			return fail(packet.ErrorInvalidHandle)
		}
		if r.Length > maxRead {
			return fail(packet.ErrorReadTooLong)
		}
		end := obj.pos + int64(r.Length)
		if end > int64(len(obj.data)) {
			end = int64(len(obj.data))
		}
		data := append([]byte{}, obj.data[obj.pos:end]...)
		obj.pos = end
		return packet.FileContentsReply{Data: data}
	case packet.SeekRequest:
		return seek(st, r)
	}
	return fail(packet.ErrorUnsupported)
}

func seek(st *connState, r packet.SeekRequest) packet.Reply {
	obj, ok := st.handles[r.Handle]
	if !ok || obj.dir {
		return fail(packet.ErrorInvalidHandle)
	}
	size := int64(len(obj.data))
	amount := int64(r.Amount)
	var pos int64
	switch r.Origin {
	case packet.SeekRewind:
		pos = amount
	case packet.SeekEnd:
		pos = size - amount
	case packet.SeekForward:
		pos = obj.pos + amount
	case packet.SeekBackward:
		pos = obj.pos - amount
	default:
		return fail(packet.ErrorIllegalSeek)
	}
	if amount < 0 || pos < 0 || pos > size {
		return fail(packet.ErrorIllegalSeek)
	}
	obj.pos = pos
	return packet.OKReply{}
}

func (s *Server) setOption(r packet.SetOptionRequest) packet.Reply {
	switch r.Name {
	case "SERVER_VERSION":
		return fail(packet.ErrorOptionReadOnly)
	case "CLIENT_STRING_CHARSET":
		if r.Value == "" {
			return fail(packet.ErrorInvalidOptionValue)
		}
	default:
		return fail(packet.ErrorUnsupported)
	}
	s.options[r.Name] = r.Value
	return packet.OKReply{}
}

func (st *connState) open(obj *openObject) packet.Handle {
	h := st.next
	st.next++
	st.handles[h] = obj
	return h
}

func (s *Server) resolve(cwd, p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(cwd, p)
}

func (s *Server) children(dir string) []string {
	var names []string
	for p := range s.entries {
		if p != "/" && path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

// formatAttributes renders the attribute text servers send along with an
// entry name.
func formatAttributes(e *entry) string {
	kind := "file"
	if e.dir {
		kind = "directory"
	}
	t := e.modTime.Unix()
	return fmt.Sprintf("<ATTRIB>%s</ATTRIB><SIZE>%d</SIZE><TIMESTAMP><ACCESS>%d</ACCESS><MODIFICATION>%d</MODIFICATION><CHANGE>%d</CHANGE></TIMESTAMP>",
		kind, len(e.data), t, t, t)
}
