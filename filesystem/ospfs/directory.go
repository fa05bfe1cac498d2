package ospfs

import "fmt"

// dirent is one directory entry (spec.md §3): a 64-byte slot holding an
// inode number (0 = tombstone/free slot) and a fixed-length name buffer.
type dirent struct {
	ino  uint32
	name string
}

const direntNameBufSize = DirentSize - blockNumberSize

func encodeDirent(d dirent) []byte {
	buf := make([]byte, DirentSize)
	putLeUint32(buf[0:blockNumberSize], d.ino)
	copy(buf[blockNumberSize:], d.name) // NUL-terminated within the fixed buffer by zero padding
	return buf
}

func decodeDirent(buf []byte) dirent {
	ino := leUint32(buf[0:blockNumberSize])
	nameBuf := buf[blockNumberSize:]
	end := 0
	for end < len(nameBuf) && nameBuf[end] != 0 {
		end++
	}
	return dirent{ino: ino, name: string(nameBuf[:end])}
}

func (d dirent) isTombstone() bool { return d.ino == 0 }

// dirEntryCount returns the number of DirentSize-sized slots in dir's data,
// which by I5 is always a whole number.
func (dir *inode) dirEntryCount() uint32 {
	return dir.size / DirentSize
}

// readDirentSlot reads the slot-th dirent of dir.
func (fs *FileSystem) readDirentSlot(dir *inode, slot uint32) (dirent, error) {
	buf := make([]byte, DirentSize)
	if _, err := fs.copyOut(dir, int64(slot)*DirentSize, buf); err != nil {
		return dirent{}, err
	}
	return decodeDirent(buf), nil
}

// writeDirentSlot overwrites the slot-th dirent of dir.
func (fs *FileSystem) writeDirentSlot(dir *inode, slot uint32, d dirent) error {
	_, err := fs.copyIn(dir, int64(slot)*DirentSize, encodeDirent(d))
	return err
}

// findDirEntry linearly scans dir for name, matching both length and byte
// equality, and returns the first non-tombstone match along with its slot
// index (spec.md §4.5).
func (fs *FileSystem) findDirEntry(dir *inode, name string) (d dirent, slot uint32, found bool, err error) {
	count := dir.dirEntryCount()
	for s := uint32(0); s < count; s++ {
		entry, err := fs.readDirentSlot(dir, s)
		if err != nil {
			return dirent{}, 0, false, err
		}
		if entry.isTombstone() {
			continue
		}
		if entry.name == name {
			return entry, s, true, nil
		}
	}
	return dirent{}, 0, false, nil
}

// createBlankDirEntry returns the slot index of the first tombstone in dir,
// or extends dir by one DirentSize-sized slot (rounding up a block when it
// crosses a block boundary) if none exists (spec.md §4.5).
func (fs *FileSystem) createBlankDirEntry(dir *inode) (uint32, error) {
	count := dir.dirEntryCount()
	for s := uint32(0); s < count; s++ {
		entry, err := fs.readDirentSlot(dir, s)
		if err != nil {
			return 0, err
		}
		if entry.isTombstone() {
			return s, nil
		}
	}
	newSlot := count
	if err := fs.changeSize(dir, dir.size+DirentSize); err != nil {
		return 0, err
	}
	return newSlot, nil
}

func validateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLen {
		return fmt.Errorf("name %q exceeds %d bytes: %w", name, MaxNameLen, ErrNameTooLong)
	}
	return nil
}

// lookup resolves name within dir, returning the target inode or
// ErrNotFound (spec.md §4.5).
func (fs *FileSystem) lookup(dir *inode, name string) (*inode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	entry, _, found, err := fs.findDirEntry(dir, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return fs.readInode(entry.ino)
}

// link allocates a blank dirent in dir naming src (spec.md §4.5). It
// rejects overlong names and name collisions, and bumps src's nlink.
func (fs *FileSystem) link(src *inode, dir *inode, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, _, found, err := fs.findDirEntry(dir, name); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%q: %w", name, ErrExists)
	}

	slot, err := fs.createBlankDirEntry(dir)
	if err != nil {
		return err
	}
	if err := fs.writeDirentSlot(dir, slot, dirent{ino: src.number, name: name}); err != nil {
		return err
	}
	src.nlink++
	return fs.writeInode(src)
}

// create makes a new, empty regular file named name in dir with the given
// permission mode (spec.md §4.5).
func (fs *FileSystem) create(dir *inode, name string, mode uint32) (*inode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, _, found, err := fs.findDirEntry(dir, name); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("%q: %w", name, ErrExists)
	}

	slot, err := fs.createBlankDirEntry(dir)
	if err != nil {
		return nil, err
	}

	ino, err := fs.allocInode()
	if err != nil {
		return nil, err
	}
	ino.ftype = ftypeRegular
	ino.nlink = 1
	ino.mode = mode
	ino.size = 0
	if err := fs.writeInode(ino); err != nil {
		return nil, err
	}

	if err := fs.writeDirentSlot(dir, slot, dirent{ino: ino.number, name: name}); err != nil {
		return nil, err
	}
	return ino, nil
}

// unlink tombstones the dirent matching name in dir and decrements the
// target's nlink. When nlink reaches 0, its data blocks are released (the
// spec.md §9 fix for the source's block leak) and the inode is freed.
func (fs *FileSystem) unlink(dir *inode, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	entry, slot, found, err := fs.findDirEntry(dir, name)
	if !found {
		if err != nil {
			return err
		}
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	target, err := fs.readInode(entry.ino)
	if err != nil {
		return err
	}

	if err := fs.writeDirentSlot(dir, slot, dirent{}); err != nil {
		return err
	}

	target.nlink--
	if target.nlink == 0 {
		if target.ftype != ftypeSymlink {
			// removeBlock directly rather than changeSize, which refuses to
			// shrink directories
			for target.blockCount() > 0 {
				if err := fs.removeBlock(target); err != nil {
					return fmt.Errorf("releasing blocks of unlinked inode %d: %w", target.number, err)
				}
			}
		}
		target.zeroed()
	}
	return fs.writeInode(target)
}

// initRootDirectory leaves a freshly made root inode empty: "." and ".."
// are neither stored on disk nor returned by ReadDir, so a fresh root
// starts as an empty, zero-size directory.
func (fs *FileSystem) initRootDirectory(root *inode) error {
	return nil
}
