package metadata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/majorfi/photo-tiles/pkg/utils"
)

// Source is the file handle the engine reads dates from.
type Source = utils.TFileSource

// HeadSize bounds how much of a file is read for metadata.
const HeadSize = utils.MetadataHeadSize

/**************************************************************************************************
** File is a Source backed by a path on the local file system. Stat information is captured at
** open time; the content is only read on demand.
**************************************************************************************************/
type File struct {
	path    string
	size    int64
	modTime time.Time
}

/**************************************************************************************************
** OpenFile stats a regular file and returns it as a Source.
**
** @param path - File path
** @return *File - Source for that path
** @return error - If the path cannot be stat'ed or is a directory
**************************************************************************************************/
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("error opening %s: is a directory", path)
	}
	return &File{path: path, size: info.Size(), modTime: info.ModTime()}, nil
}

func (f *File) Name() string            { return filepath.Base(f.path) }
func (f *File) Path() string            { return f.path }
func (f *File) Size() int64             { return f.size }
func (f *File) LastModified() time.Time { return f.modTime }

// Head reads at most n bytes from the start of the file.
func (f *File) Head(n int64) ([]byte, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", f.path, err)
	}
	defer fh.Close()
	return readHead(fh, n)
}

// Open returns a reader over the whole file content.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

/**************************************************************************************************
** MemorySource is a Source over an in-memory byte slice, for uploads that never touch disk.
**************************************************************************************************/
type MemorySource struct {
	name    string
	data    []byte
	modTime time.Time
}

// NewMemorySource wraps data as a Source.
func NewMemorySource(name string, data []byte, modTime time.Time) *MemorySource {
	return &MemorySource{name: name, data: data, modTime: modTime}
}

func (m *MemorySource) Name() string            { return m.name }
func (m *MemorySource) Size() int64             { return int64(len(m.data)) }
func (m *MemorySource) LastModified() time.Time { return m.modTime }

func (m *MemorySource) Head(n int64) ([]byte, error) {
	return readHead(bytes.NewReader(m.data), n)
}

func (m *MemorySource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func readHead(r io.Reader, n int64) ([]byte, error) {
	if n <= 0 {
		n = HeadSize
	}
	head, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, fmt.Errorf("error reading head: %w", err)
	}
	return head, nil
}

// Opener is implemented by sources whose full content can be streamed.
type Opener interface {
	Open() (io.ReadCloser, error)
}
