// Package mem provides a backend.Storage backed by a plain in-memory byte
// arena. This is the "disk" of the ospfs core: a contiguous region of memory
// sliced into fixed-size blocks, with no host file or device underneath it.
package mem

import (
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ospfs/ospfs/backend"
)

// Arena is an in-memory, fixed-size backing store. It implements
// backend.Storage so it can be used anywhere a disk image or block device
// would be, but Sys() always reports backend.ErrNotSuitable since there is
// no underlying *os.File to hand a kernel ioctl.
type Arena struct {
	buf    []byte
	offset int64
}

// New allocates an Arena of the given size, zero-filled.
func New(size int64) *Arena {
	if size < 0 {
		size = 0
	}
	return &Arena{buf: make([]byte, size)}
}

// NewFromBytes wraps an existing byte slice directly (no copy); useful for
// restoring a prior snapshot captured via backend/file.
func NewFromBytes(b []byte) *Arena {
	return &Arena{buf: b}
}

var _ backend.Storage = (*Arena)(nil)

func (a *Arena) Sys() (*os.File, error) {
	return nil, backend.ErrNotSuitable
}

func (a *Arena) Writable() (backend.WritableFile, error) {
	return a, nil
}

func (a *Arena) Read(p []byte) (int, error) {
	n, err := a.ReadAt(p, a.offset)
	a.offset += int64(n)
	return n, err
}

func (a *Arena) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(a.buf)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, a.buf[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (a *Arena) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if off < 0 || end > int64(len(a.buf)) {
		return 0, io.ErrShortWrite
	}
	n := copy(a.buf[off:end], p)
	return n, nil
}

func (a *Arena) Write(p []byte) (int, error) {
	n, err := a.WriteAt(p, a.offset)
	a.offset += int64(n)
	return n, err
}

func (a *Arena) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = a.offset + offset
	case io.SeekEnd:
		newOffset = int64(len(a.buf)) + offset
	}
	if newOffset < 0 {
		return a.offset, os.ErrInvalid
	}
	a.offset = newOffset
	return a.offset, nil
}

func (a *Arena) Close() error { return nil }

func (a *Arena) Stat() (fs.FileInfo, error) {
	return arenaInfo{size: int64(len(a.buf))}, nil
}

// Bytes exposes the raw arena contents; used by backend/file when taking a
// snapshot for export. The returned slice aliases the arena - callers must
// not retain it across a subsequent resize of the filesystem above it.
func (a *Arena) Bytes() []byte {
	return a.buf
}

type arenaInfo struct {
	size int64
}

func (i arenaInfo) Name() string       { return "ospfs-arena" }
func (i arenaInfo) Size() int64        { return i.size }
func (i arenaInfo) Mode() fs.FileMode  { return 0o600 }
func (i arenaInfo) ModTime() time.Time { return time.Time{} }
func (i arenaInfo) IsDir() bool        { return false }
func (i arenaInfo) Sys() any           { return nil }
