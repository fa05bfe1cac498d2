// Package syncutil copies a host io/fs.FS tree into a filesystem.FileSystem
// (in practice, a freshly made ospfs image). It exists to build fixture
// images inside tests; it is not the "initial filesystem image builder"
// that formats a shipped image at build time, which spec.md treats as an
// external collaborator out of scope for this module.
package syncutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/ospfs/ospfs/filesystem"
)

// excludedNames mirrors the teacher's own sync package: filesystem debris
// that should never get copied into a fixture image.
var excludedNames = map[string]bool{
	"lost+found":                true,
	".DS_Store":                 true,
	"System Volume Information": true,
}

const maxWholeFileSize = 64 * 1024 * 1024

// destination is the subset of filesystem.FileSystem syncutil needs. It is
// declared locally, rather than importing filesystem.FileSystem directly,
// so tests can plug in a bare-bones fake without satisfying the full VFS
// interface (SetLabel, Rename, and friends are never exercised by a copy).
type destination interface {
	Mkdir(pathname string) error
	OpenFile(pathname string, flag int) (filesystem.File, error)
	Symlink(oldpath, newpath string) error
}

// readlinker is implemented by source filesystems that can report a
// symlink's target. convert.FS does not implement it; copying a symlink
// from a source without it fails.
type readlinker interface {
	ReadLink(string) (string, error)
}

// CopyTree copies every regular file, directory, and symlink under src into
// dst, preserving structure. It is a drastically narrowed version of the
// teacher's CopyFileSystem: no timestamp restoration (ospfs tracks none)
// and no raw partition copying (out of scope for an in-memory filesystem).
func CopyTree(src fs.FS, dst destination) error {
	return copyDir(src, dst, ".")
}

func copyDir(src fs.FS, dst destination, dir string) error {
	entries, err := fs.ReadDir(src, dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if excludedNames[name] {
			continue
		}

		p := name
		if dir != "." {
			p = path.Join(dir, name)
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if err := copySymlink(src, dst, p); err != nil {
				return fmt.Errorf("copy symlink %s: %w", p, err)
			}
		case entry.IsDir():
			if err := dst.Mkdir(p); err != nil {
				return fmt.Errorf("create dir %s: %w", p, err)
			}
			if err := copyDir(src, dst, p); err != nil {
				return fmt.Errorf("copy dir %s: %w", p, err)
			}
		case info.Mode().IsRegular():
			if err := copyOneFile(src, dst, p, info); err != nil {
				return fmt.Errorf("copy file %s: %w", p, err)
			}
		}
	}
	return nil
}

func copyOneFile(src fs.FS, dst destination, p string, info fs.FileInfo) error {
	in, err := src.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := dst.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_RDWR)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if info.Size() <= maxWholeFileSize {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		n, err := out.Write(data)
		if err != nil {
			return err
		}
		if n != len(data) {
			return io.ErrShortWrite
		}
		return nil
	}

	buf := make([]byte, 32*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func copySymlink(src fs.FS, dst destination, p string) error {
	rl, ok := src.(readlinker)
	if !ok {
		return fmt.Errorf("source does not support reading symlink targets for %s", p)
	}
	target, err := rl.ReadLink(p)
	if err != nil {
		return err
	}
	return dst.Symlink(target, p)
}
