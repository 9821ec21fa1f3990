// Package pagefile persists JSON arrays on disk: an incremental writer that is always
// left as a closed array, and whole-file readers/writers for the flatten stage.
package pagefile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Array delimiters
const (
	arrayOpen      = "[\n"
	arraySep       = ",\n"
	arrayClose     = "\n]"
	arrayCloseNone = "]"
	filePerm       = 0o644
	dirPerm        = 0o755
)

// indent is two spaces, one element per line.
var indent = &pretty.Options{Width: 0, Prefix: "", Indent: "  ", SortKeys: false}

// file is the part of *os.File an ArrayWriter needs.
type file interface {
	io.WriteCloser
	io.Seeker
	Truncate(size int64) error
}

// ArrayWriter appends JSON values to a file as elements of one array. Every Append is
// one write that either lands whole or is cut back off, so the file is always a prefix
// that only lacks "]". Close writes the closing bracket and is safe to call more than once.
type ArrayWriter struct {
	f      file
	size   int64
	count  int
	closed bool
}

// Create truncates or creates path and writes the array opening.
func Create(path string) (*ArrayWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, eris.Wrapf(err, "pagefile: mkdir %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, eris.Wrapf(err, "pagefile: create %s", path)
	}
	return newArrayWriter(f)
}

func newArrayWriter(f file) (*ArrayWriter, error) {
	aw := &ArrayWriter{f: f}
	if err := aw.write([]byte(arrayOpen)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return aw, nil
}

// Append writes raw as the next array element, indented with two spaces.
func (a *ArrayWriter) Append(raw []byte) error {
	if a.closed {
		return eris.New("pagefile: append after close")
	}
	if !gjson.ValidBytes(raw) {
		return eris.New("pagefile: element is not valid JSON")
	}
	body := pretty.PrettyOptions(raw, indent)
	// pretty appends a trailing newline; the separator supplies line breaks
	if n := len(body); n > 0 && body[n-1] == '\n' {
		body = body[:n-1]
	}
	chunk := make([]byte, 0, len(arraySep)+len(body))
	if a.count > 0 {
		chunk = append(chunk, arraySep...)
	}
	chunk = append(chunk, body...)
	if err := a.write(chunk); err != nil {
		return eris.Wrap(err, "pagefile: write element")
	}
	a.count++
	return nil
}

// Count is the number of elements appended so far.
func (a *ArrayWriter) Count() int { return a.count }

// Close finishes the array and closes the file.
func (a *ArrayWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	closing := arrayClose
	if a.count == 0 {
		closing = arrayCloseNone
	}
	werr := a.write([]byte(closing))
	cerr := a.f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return eris.Wrap(cerr, "pagefile: close")
	}
	return nil
}

// write lands b whole or cuts a partial write back to the last good size.
func (a *ArrayWriter) write(b []byte) error {
	n, err := a.f.Write(b)
	if err != nil {
		if n > 0 {
			if terr := a.f.Truncate(a.size); terr != nil {
				return eris.Wrapf(terr, "pagefile: truncate after failed write: %v", err)
			}
			if _, serr := a.f.Seek(a.size, io.SeekStart); serr != nil {
				return eris.Wrapf(serr, "pagefile: seek after failed write: %v", err)
			}
		}
		return eris.Wrap(err, "pagefile: write")
	}
	a.size += int64(n)
	return nil
}

// ReadArray reads path fully and returns its top-level array elements.
func ReadArray(path string) ([]gjson.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pagefile: read %s", path)
	}
	if !gjson.ValidBytes(data) {
		return nil, eris.Errorf("pagefile: %s is not valid JSON", path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, eris.Errorf("pagefile: %s holds %s, want array", path, root.Type)
	}
	return root.Array(), nil
}

// WriteArray writes raw elements to path as one pretty-printed array.
func WriteArray(path string, elems [][]byte) error {
	buf := make([]byte, 0, 2+len(elems)*64)
	buf = append(buf, '[')
	for i, e := range elems {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, e...)
	}
	buf = append(buf, ']')
	if !gjson.ValidBytes(buf) {
		return eris.New("pagefile: output is not valid JSON")
	}
	out := pretty.PrettyOptions(buf, indent)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return eris.Wrapf(err, "pagefile: mkdir %s", dir)
		}
	}
	if err := os.WriteFile(path, out, filePerm); err != nil {
		return eris.Wrapf(err, "pagefile: write %s", path)
	}
	return nil
}
