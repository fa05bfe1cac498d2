package ospfs

import (
	iofs "io/fs"
	"os"
	"time"

	"github.com/ospfs/ospfs/util/timestamp"
)

// fileInfo adapts an ospfs inode (plus the name under which it was looked
// up) to os.FileInfo / fs.DirEntry.
type fileInfo struct {
	name string
	ino  *inode
}

var (
	_ os.FileInfo   = (*fileInfo)(nil)
	_ iofs.DirEntry = (*fileInfo)(nil)
)

func (fi *fileInfo) Name() string { return fi.name }
func (fi *fileInfo) Size() int64  { return int64(fi.ino.size) }
func (fi *fileInfo) Mode() os.FileMode {
	m := os.FileMode(fi.ino.mode & 0o777)
	switch fi.ino.ftype {
	case ftypeDirectory:
		m |= os.ModeDir
	case ftypeSymlink:
		m |= os.ModeSymlink
	}
	return m
}

// ModTime is not tracked by this filesystem's on-disk layout; it reports
// the process-wide reproducible clock (util/timestamp) rather than a
// stored timestamp.
func (fi *fileInfo) ModTime() time.Time { return timestamp.GetTime() }
func (fi *fileInfo) IsDir() bool        { return fi.ino.ftype == ftypeDirectory }
func (fi *fileInfo) Sys() interface{}   { return fi.ino }

func (fi *fileInfo) Type() iofs.FileMode          { return fi.Mode().Type() }
func (fi *fileInfo) Info() (iofs.FileInfo, error) { return fi, nil }
