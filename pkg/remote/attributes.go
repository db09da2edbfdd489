package remote

import (
	"encoding/xml"
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// Entry describes a remote file or directory.
type Entry struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

var _ fs.FileInfo = Entry{}

func (e Entry) Name() string       { return e.name }
func (e Entry) Size() int64        { return e.size }
func (e Entry) ModTime() time.Time { return e.modTime }
func (e Entry) IsDir() bool        { return e.dir }
func (e Entry) Sys() any           { return nil }

func (e Entry) Mode() fs.FileMode {
	if e.dir {
		return fs.ModeDir | 0555
	}
	return 0444
}

type attributes struct {
	Attrib       string `xml:"ATTRIB"`
	Size         int64  `xml:"SIZE"`
	Modification int64  `xml:"TIMESTAMP>MODIFICATION"`
}

// ParseAttributes parses the attribute text a server sends with an entry
// name. Missing tags leave the matching field zero.
func ParseAttributes(name, info string) (Entry, error) {
	var attrs attributes
	if info != "" {
		if err := xml.Unmarshal([]byte("<entry>"+info+"</entry>"), &attrs); err != nil {
			return Entry{}, errors.Wrapf(err, "invalid attributes for %q", name)
		}
	}
	e := Entry{
		name: name,
		size: attrs.Size,
		dir:  attrs.Attrib == "directory",
	}
	if attrs.Modification > 0 {
		e.modTime = time.Unix(attrs.Modification, 0)
	}
	return e, nil
}
