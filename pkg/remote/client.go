// Package remote exposes a server's tree through file system style calls
// on top of a protocol session.
package remote

import (
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/ccxstream/xbmsp/pkg/dataconn"
	"github.com/ccxstream/xbmsp/pkg/packet"
)

const (
	DefaultReadChunk = 64 << 10
	// MaxReadChunk keeps a file-contents reply within one packet.
	MaxReadChunk = 120 << 10
)

type Options struct {
	Session   dataconn.Options
	ReadChunk uint32
}

func DefaultOptions() Options {
	return Options{
		Session:   dataconn.DefaultOptions(),
		ReadChunk: DefaultReadChunk,
	}
}

// Client is a connected, possibly authenticated session. Like the session
// underneath it, it serves one caller at a time.
type Client struct {
	session   *dataconn.Session
	loc       Location
	readChunk uint32
}

// Dial connects to the server named by loc and logs in when loc carries a
// user. A refused login is logged and the client stays anonymous.
func Dial(loc Location, opts Options) (*Client, error) {
	session, err := dataconn.Connect(loc.Host, loc.Port, opts.Session)
	if err != nil {
		return nil, err
	}
	c := NewClient(session, loc, opts)

	if loc.User != "" {
		if err := session.Login(loc.User, loc.Password); err != nil {
			if dataconn.IsFatal(err) {
				session.Disconnect()
				return nil, err
			}
			logrus.WithError(err).WithField("user", loc.User).Warnf("Login to %v refused, continuing anonymously", loc.Address())
		}
	}
	return c, nil
}

// NewClient wraps an established session.
func NewClient(session *dataconn.Session, loc Location, opts Options) *Client {
	chunk := opts.ReadChunk
	if chunk == 0 {
		chunk = DefaultReadChunk
	}
	if chunk > MaxReadChunk {
		chunk = MaxReadChunk
	}
	return &Client{
		session:   session,
		loc:       loc,
		readChunk: chunk,
	}
}

func (c *Client) Session() *dataconn.Session {
	return c.session
}

func (c *Client) Location() Location {
	return c.loc
}

// Close releases every server handle and disconnects.
func (c *Client) Close() error {
	var err error
	if !c.session.Broken() {
		err = c.session.CloseAll()
	}
	return multierr.Append(err, c.session.Disconnect())
}

func splitPath(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// chdir makes dir the session's working directory, one component at a
// time from the root.
func (c *Client) chdir(dir string) error {
	if err := c.session.SetCwd("/"); err != nil {
		return err
	}
	for _, name := range splitPath(dir) {
		if err := c.session.SetCwd(name); err != nil {
			return err
		}
	}
	return nil
}

func pathError(op, p string, err error) error {
	if code, ok := dataconn.ErrorCodeOf(err); ok && code == packet.ErrorNoSuchFile {
		err = errors.Mark(err, fs.ErrNotExist)
	}
	return errors.Wrapf(err, "%v %v", op, p)
}

// DirIterator walks one directory listing.
type DirIterator struct {
	c      *Client
	h      packet.Handle
	done   bool
	closed bool
}

func (c *Client) OpenDir(dir string) (*DirIterator, error) {
	if err := c.chdir(dir); err != nil {
		return nil, pathError("opendir", dir, err)
	}
	h, err := c.session.OpenDir()
	if err != nil {
		return nil, pathError("opendir", dir, err)
	}
	return &DirIterator{c: c, h: h}, nil
}

// Next returns the next entry, or io.EOF once the listing is exhausted.
func (it *DirIterator) Next() (Entry, error) {
	for !it.done {
		name, info, err := it.c.session.ReadDir(it.h)
		if err != nil {
			return Entry{}, err
		}
		if name == "" {
			it.done = true
			break
		}
		if name == "." || name == ".." {
			continue
		}
		return ParseAttributes(name, info)
	}
	return Entry{}, io.EOF
}

func (it *DirIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.c.session.Close(it.h)
}

// ReadDir lists dir in server order.
func (c *Client) ReadDir(dir string) ([]Entry, error) {
	it, err := c.OpenDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			it.Close()
			return nil, pathError("readdir", dir, err)
		}
		entries = append(entries, e)
	}
	return entries, it.Close()
}

func (c *Client) Stat(p string) (Entry, error) {
	p = path.Clean("/" + p)
	if p == "/" {
		return Entry{name: "/", dir: true}, nil
	}
	if err := c.chdir(path.Dir(p)); err != nil {
		return Entry{}, pathError("stat", p, err)
	}
	_, info, err := c.session.Stat(path.Base(p))
	if err != nil {
		return Entry{}, pathError("stat", p, err)
	}
	return ParseAttributes(path.Base(p), info)
}

// Open opens a file for reading.
func (c *Client) Open(p string) (*File, error) {
	entry, err := c.Stat(p)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return nil, errors.Newf("open %v: is a directory", p)
	}
	// Stat left the working directory at the file's parent.
	h, err := c.session.OpenFile(entry.Name())
	if err != nil {
		return nil, pathError("open", p, err)
	}
	return &File{c: c, h: h, entry: entry}, nil
}
