package remote

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/ccxstream/xbmsp/pkg/packet"
)

var ErrInvalidOffset = errors.New("invalid offset")

// File is an open remote file. Reads are split into requests of at most the
// client's read chunk.
type File struct {
	c      *Client
	h      packet.Handle
	entry  Entry
	pos    int64
	closed bool
}

var (
	_ io.ReadSeekCloser = (*File)(nil)
	_ io.ReaderAt       = (*File)(nil)
)

func (f *File) Stat() Entry {
	return f.entry
}

func (f *File) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	n := len(b)
	if n > int(f.c.readChunk) {
		n = int(f.c.readChunk)
	}
	data, err := f.c.session.ReadFile(f.h, uint32(n))
	if err != nil {
		return 0, errors.Wrapf(err, "read %v", f.entry.Name())
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	if len(data) > n {
		return 0, errors.Errorf("read %v: server returned %d bytes, asked for %d", f.entry.Name(), len(data), n)
	}
	copy(b, data)
	f.pos += int64(len(data))
	return len(data), nil
}

// ReadAt reads from off until b is full or the file ends. The file position
// seen by Read and Seek is restored afterwards.
func (f *File) ReadAt(b []byte, off int64) (int, error) {
	saved := f.pos
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(f, b)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if rerr := f.c.session.Rewind(f.h, uint64(saved)); rerr != nil {
		return n, errors.Wrapf(rerr, "restore position of %v", f.entry.Name())
	}
	f.pos = saved
	return n, err
}

// Seek maps the io.Seeker origins onto the protocol's rewind, forward,
// backward and end origins.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var (
		target int64
		err    error
	)
	switch whence {
	case io.SeekStart:
		target = offset
		if target >= 0 {
			err = f.c.session.Rewind(f.h, uint64(offset))
		}
	case io.SeekCurrent:
		target = f.pos + offset
		if target < 0 {
			break
		}
		if offset >= 0 {
			err = f.c.session.Forward(f.h, uint64(offset))
		} else {
			err = f.c.session.Backward(f.h, uint64(-offset))
		}
	case io.SeekEnd:
		target = f.entry.size + offset
		if offset > 0 {
			return f.pos, errors.Wrapf(ErrInvalidOffset, "seek %v past end", f.entry.Name())
		}
		if target >= 0 {
			err = f.c.session.SeekEnd(f.h, uint64(-offset))
		}
	default:
		return f.pos, errors.Wrapf(ErrInvalidOffset, "seek %v: whence %d", f.entry.Name(), whence)
	}
	if target < 0 {
		return f.pos, errors.Wrapf(ErrInvalidOffset, "seek %v to %d", f.entry.Name(), target)
	}
	if err != nil {
		return f.pos, errors.Wrapf(err, "seek %v", f.entry.Name())
	}
	f.pos = target
	return f.pos, nil
}

func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.c.session.Close(f.h)
}
