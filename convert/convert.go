// Package convert adapts a filesystem.FileSystem - in practice, an
// ospfs-mounted one - to a read-only io/fs.FS, so host tooling that already
// knows how to walk fs.FS (fs.WalkDir, fs.ReadFile, and friends) can do so
// without learning this module's own path-based interface.
package convert

import (
	"io/fs"
	"os"
	"path"

	"github.com/ospfs/ospfs/filesystem"
)

type fsBridge struct {
	filesystem.FileSystem
}

// FS wraps f as a read-only io/fs.FS.
func FS(f filesystem.FileSystem) fs.FS {
	return &fsBridge{f}
}

// ReadDir lets fs.ReadDir and fs.WalkDir list a directory without opening
// it first. filesystem.FileSystem.ReadDir returns os.FileInfo, not
// fs.DirEntry, so entries that don't already satisfy fs.DirEntry (ospfs's
// own do) are adapted with dirEntryFromInfo.
func (b *fsBridge) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	infos, err := b.FileSystem.ReadDir(name)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		if de, ok := info.(fs.DirEntry); ok {
			out[i] = de
		} else {
			out[i] = dirEntryFromInfo{info}
		}
	}
	return out, nil
}

type dirEntryFromInfo struct{ os.FileInfo }

func (d dirEntryFromInfo) Type() fs.FileMode          { return d.Mode().Type() }
func (d dirEntryFromInfo) Info() (fs.FileInfo, error) { return d.FileInfo, nil }

func (b *fsBridge) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	file, err := b.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, err
	}

	dirname := path.Dir(name)
	var stat os.FileInfo
	if entries, err := b.FileSystem.ReadDir(dirname); err == nil {
		base := path.Base(name)
		for _, entry := range entries {
			if entry.Name() == base {
				stat = entry
				break
			}
		}
	}
	return &bridgeFile{File: file, stat: stat}, nil
}

// bridgeFile replaces the Stat of the wrapped filesystem.File with the
// entry found for the file in its parent directory's listing, or
// fs.ErrInvalid if no such entry was found.
type bridgeFile struct {
	filesystem.File
	stat os.FileInfo
}

func (f *bridgeFile) Stat() (fs.FileInfo, error) {
	if f.stat == nil {
		return nil, fs.ErrInvalid
	}
	return f.stat, nil
}
