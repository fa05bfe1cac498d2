package ospfs

import (
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"strings"

	fsiface "github.com/ospfs/ospfs/filesystem"
	"github.com/sirupsen/logrus"
)

// getEntryAndParent walks p from the root, returning the directory inode
// that holds the final component and the final component's name. It does
// not require the final component to exist: callers that need the target
// inode itself look it up with fs.lookup(parent, name).
//
// Intermediate symlinks are followed (with the CallerFromProcess caller
// identity) the way a host kernel's path resolver would; a dangling
// intermediate symlink or a non-directory in the middle of the path is an
// error.
func (fs *FileSystem) getEntryAndParent(p string) (parent *inode, name string, err error) {
	clean := path.Clean("/" + p)
	dir := path.Dir(clean)
	base := path.Base(clean)
	if clean == "/" {
		return nil, "", fmt.Errorf("root has no parent: %w", ErrNotPermitted)
	}

	parentIno, err := fs.walk(dir, CallerFromProcess())
	if err != nil {
		return nil, "", err
	}
	if parentIno.ftype != ftypeDirectory {
		return nil, "", fmt.Errorf("%q: %w", dir, ErrNotFound)
	}
	return parentIno, base, nil
}

// walk resolves a clean, slash-separated absolute path to its inode,
// starting at root and following symlinks (including conditional ones,
// resolved against caller) encountered along the way.
func (fs *FileSystem) walk(p string, caller Caller) (*inode, error) {
	cur, err := fs.readInode(RootIno)
	if err != nil {
		return nil, err
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return cur, nil
	}
	parts := strings.Split(strings.Trim(clean, "/"), "/")
	for _, part := range parts {
		if cur.ftype != ftypeDirectory {
			return nil, fmt.Errorf("%q: %w", part, ErrNotFound)
		}
		next, err := fs.lookup(cur, part)
		if err != nil {
			return nil, err
		}
		for next.ftype == ftypeSymlink {
			target, err := followLink(next, caller)
			if err != nil {
				return nil, err
			}
			resolved, err := fs.walk(target, caller)
			if err != nil {
				return nil, err
			}
			next = resolved
		}
		cur = next
	}
	return cur, nil
}

func (fs *FileSystem) resolve(p string) (*inode, error) {
	return fs.walk(p, CallerFromProcess())
}

// Mkdir implements filesystem.FileSystem.
func (fs *FileSystem) Mkdir(pathname string) error {
	fs.log.WithField("path", pathname).Debug("mkdir")
	parent, name, err := fs.getEntryAndParent(pathname)
	if err != nil {
		fs.log.WithField("path", pathname).WithError(err).Warn("mkdir failed")
		return err
	}
	dirIno, err := fs.create(parent, name, 0o755)
	if err != nil {
		fs.log.WithField("path", pathname).WithError(err).Warn("mkdir failed")
		return err
	}
	dirIno.ftype = ftypeDirectory
	dirIno.mode = 0o755
	return fs.writeInode(dirIno)
}

// Mknod implements filesystem.FileSystem. Only regular-file nodes are
// meaningful in an in-memory block store with no device layer backing
// character/block special files.
func (fs *FileSystem) Mknod(pathname string, mode uint32, dev int) error {
	if dev != 0 {
		return fmt.Errorf("device nodes are not supported by this filesystem: %w", fsiface.ErrNotSupported)
	}
	parent, name, err := fs.getEntryAndParent(pathname)
	if err != nil {
		return err
	}
	_, err = fs.create(parent, name, mode)
	return err
}

// Link implements filesystem.FileSystem.
func (fs *FileSystem) Link(oldpath, newpath string) error {
	src, err := fs.resolve(oldpath)
	if err != nil {
		return err
	}
	parent, name, err := fs.getEntryAndParent(newpath)
	if err != nil {
		return err
	}
	return fs.link(src, parent, name)
}

// Symlink implements filesystem.FileSystem.
func (fs *FileSystem) Symlink(oldpath, newpath string) error {
	parent, name, err := fs.getEntryAndParent(newpath)
	if err != nil {
		return err
	}
	_, err = fs.symlink(parent, name, oldpath)
	return err
}

// Chmod implements filesystem.FileSystem.
func (fs *FileSystem) Chmod(name string, mode os.FileMode) error {
	target, err := fs.resolve(name)
	if err != nil {
		return err
	}
	target.mode = uint32(mode.Perm())
	return fs.writeInode(target)
}

// Chown is unsupported: inodes in this layout carry no owner/group fields
// beyond the conditional-symlink caller-UID check (spec.md §4.6), so there
// is nothing to persist.
func (fs *FileSystem) Chown(name string, uid, gid int) error {
	return fmt.Errorf("ownership is not tracked by this filesystem: %w", fsiface.ErrNotSupported)
}

// ReadDir implements filesystem.FileSystem. It returns the directory's live
// (non-tombstone) on-disk entries in slot order; "." and ".." are not stored
// on disk and are not included.
func (fs *FileSystem) ReadDir(pathname string) ([]os.FileInfo, error) {
	dir, err := fs.resolve(pathname)
	if err != nil {
		return nil, err
	}
	if dir.ftype != ftypeDirectory {
		return nil, fmt.Errorf("%q: %w", pathname, ErrNotFound)
	}

	var out []os.FileInfo
	count := dir.dirEntryCount()
	for s := uint32(0); s < count; s++ {
		entry, err := fs.readDirentSlot(dir, s)
		if err != nil {
			return nil, err
		}
		if entry.isTombstone() {
			continue
		}
		child, err := fs.readInode(entry.ino)
		if err != nil {
			return nil, err
		}
		out = append(out, &fileInfo{name: entry.name, ino: child})
	}
	return out, nil
}

// OpenFile implements filesystem.FileSystem. flag follows os.O_* semantics;
// O_CREATE makes a new regular file if the target does not already exist.
func (fs *FileSystem) OpenFile(pathname string, flag int) (fsiface.File, error) {
	fs.log.WithFields(logrus.Fields{"path": pathname, "flag": flag}).Debug("openfile")
	parent, name, err := fs.getEntryAndParent(pathname)
	if err != nil {
		fs.log.WithField("path", pathname).WithError(err).Warn("openfile failed")
		return nil, err
	}

	target, lookupErr := fs.lookup(parent, name)
	if lookupErr != nil {
		if flag&os.O_CREATE == 0 {
			return nil, lookupErr
		}
		target, err = fs.create(parent, name, 0o644)
		if err != nil {
			return nil, err
		}
	} else if flag&os.O_EXCL != 0 && flag&os.O_CREATE != 0 {
		return nil, fmt.Errorf("%q: %w", pathname, ErrExists)
	}
	if target.ftype == ftypeSymlink {
		target, err = fs.resolve(pathname)
		if err != nil {
			return nil, err
		}
	}

	if target.ftype == ftypeDirectory {
		return nil, fmt.Errorf("%q is a directory: %w", pathname, ErrNotPermitted)
	}

	h := &fileHandle{fs: fs, ino: target, name: name, appendMode: flag&os.O_APPEND != 0}
	if flag&os.O_TRUNC != 0 {
		if err := fs.truncate(target, 0); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Rename implements filesystem.FileSystem as link-then-unlink, since this
// layout has no rename-in-place primitive of its own.
func (fs *FileSystem) Rename(oldpath, newpath string) error {
	oldParent, oldName, err := fs.getEntryAndParent(oldpath)
	if err != nil {
		return err
	}
	entry, _, found, err := fs.findDirEntry(oldParent, oldName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: %w", oldpath, ErrNotFound)
	}
	src, err := fs.readInode(entry.ino)
	if err != nil {
		return err
	}

	newParent, newName, err := fs.getEntryAndParent(newpath)
	if err != nil {
		return err
	}
	if err := fs.link(src, newParent, newName); err != nil {
		return err
	}
	return fs.unlink(oldParent, oldName)
}

// Remove implements filesystem.FileSystem. Removing a non-empty directory
// is refused.
func (fs *FileSystem) Remove(pathname string) error {
	fs.log.WithField("path", pathname).Debug("remove")
	parent, name, err := fs.getEntryAndParent(pathname)
	if err != nil {
		fs.log.WithField("path", pathname).WithError(err).Warn("remove failed")
		return err
	}
	target, err := fs.lookup(parent, name)
	if err != nil {
		return err
	}
	if target.ftype == ftypeDirectory {
		count := target.dirEntryCount()
		for s := uint32(0); s < count; s++ {
			entry, err := fs.readDirentSlot(target, s)
			if err != nil {
				return err
			}
			if !entry.isTombstone() {
				return fmt.Errorf("%q: %w", pathname, ErrNotPermitted)
			}
		}
	}
	return fs.unlink(parent, name)
}

// fileHandle is the filesystem.File returned by OpenFile: an open
// read/write/seek cursor over one inode's bytes.
type fileHandle struct {
	fs         *FileSystem
	ino        *inode
	name       string
	pos        int64
	appendMode bool
	closed     bool
}

var _ fsiface.File = (*fileHandle)(nil)

func (h *fileHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("read on closed file: %w", ErrIO)
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := h.fs.ReadFile(h.ino, p, len(p), &h.pos)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

func (h *fileHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("write on closed file: %w", ErrIO)
	}
	return h.fs.WriteFile(h.ino, p, len(p), &h.pos, h.appendMode)
}

func (h *fileHandle) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case os.SEEK_SET:
		base = 0
	case os.SEEK_CUR:
		base = h.pos
	case os.SEEK_END:
		base = int64(h.ino.size)
	default:
		return 0, fmt.Errorf("invalid whence %d: %w", whence, ErrBadAddress)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fmt.Errorf("negative seek result: %w", ErrBadAddress)
	}
	h.pos = newPos
	return h.pos, nil
}

func (h *fileHandle) Close() error {
	h.closed = true
	return nil
}

func (h *fileHandle) Stat() (iofs.FileInfo, error) {
	return &fileInfo{name: h.name, ino: h.ino}, nil
}

// ReadDir satisfies fs.ReadDirFile; only meaningful when the handle was
// opened on a directory, which OpenFile itself refuses, so this always
// reports the handle as non-readable-as-directory.
func (h *fileHandle) ReadDir(n int) ([]iofs.DirEntry, error) {
	return nil, fmt.Errorf("%q is not a directory handle: %w", h.name, ErrNotPermitted)
}
