package ospfs

import (
	"fmt"
)

// L4: file I/O. copyOut/copyIn are the shared low-level block-translation
// loop that both Read/Write and the directory engine (L5) build on -
// directories are just files whose bytes happen to be packed dirents.

// copyOut copies up to len(dst) bytes from i's data blocks starting at
// off into dst, without touching i.size or allocating anything. It is an
// error (I3 violation) for addressing to fail anywhere inside [off,
// off+len(dst)) when that range is within i.size.
func (fs *FileSystem) copyOut(i *inode, off int64, dst []byte) (int, error) {
	transferred := 0
	for transferred < len(dst) {
		pos := off + int64(transferred)
		blockIdx := uint32(pos / BlockSize)
		inBlock := int(pos % BlockSize)

		blockno, ok, err := fs.blockNumberForIndex(i, blockIdx)
		if err != nil {
			return transferred, err
		}
		if !ok {
			return transferred, fmt.Errorf("no block at file offset %d (I3 violated): %w", pos, ErrIO)
		}
		blk, err := fs.store.readBlock(blockno)
		if err != nil {
			return transferred, err
		}

		n := copy(dst[transferred:], blk[inBlock:])
		transferred += n
	}
	return transferred, nil
}

// copyIn writes src into i's data blocks starting at off. The first
// iteration honors the in-block offset; subsequent iterations start at
// offset 0 within their block (spec.md §4.4). Every block touched must
// already be allocated.
func (fs *FileSystem) copyIn(i *inode, off int64, src []byte) (int, error) {
	transferred := 0
	for transferred < len(src) {
		pos := off + int64(transferred)
		blockIdx := uint32(pos / BlockSize)
		inBlock := int(pos % BlockSize)

		blockno, ok, err := fs.blockNumberForIndex(i, blockIdx)
		if err != nil {
			return transferred, err
		}
		if !ok {
			return transferred, fmt.Errorf("no block at file offset %d (I3 violated): %w", pos, ErrIO)
		}
		blk, err := fs.store.readBlock(blockno)
		if err != nil {
			return transferred, err
		}

		n := copy(blk[inBlock:], src[transferred:])
		if err := fs.store.writeBlock(blockno, blk); err != nil {
			return transferred, err
		}
		transferred += n
	}
	return transferred, nil
}

// ReadFile reads up to count bytes from i at *pos into buf (which must be
// at least count bytes), advancing *pos. Reads never pass end-of-file: count
// is first clamped to size-*pos. It returns ErrIO if the pointer tree is
// missing a block inside the clamped range.
func (fs *FileSystem) ReadFile(i *inode, buf []byte, count int, pos *int64) (int, error) {
	if *pos < 0 {
		return 0, fmt.Errorf("negative offset: %w", ErrIO)
	}
	remaining := int64(i.size) - *pos
	if remaining < 0 {
		remaining = 0
	}
	if int64(count) > remaining {
		count = int(remaining)
	}
	if count <= 0 {
		return 0, nil
	}
	if len(buf) < count {
		return 0, fmt.Errorf("buffer shorter than clamped read count: %w", ErrBadAddress)
	}

	n, err := fs.copyOut(i, *pos, buf[:count])
	*pos += int64(n)
	return n, err
}

// WriteFile writes count bytes from buf into i at *pos, growing i via
// changeSize first if the write would extend past the current size. If
// appendMode is set, *pos is first reset to i.size (spec.md §4.4).
func (fs *FileSystem) WriteFile(i *inode, buf []byte, count int, pos *int64, appendMode bool) (int, error) {
	if len(buf) < count {
		return 0, fmt.Errorf("buffer shorter than requested write count: %w", ErrBadAddress)
	}
	if appendMode {
		*pos = int64(i.size)
	}
	if *pos < 0 {
		return 0, fmt.Errorf("negative offset: %w", ErrIO)
	}

	end := *pos + int64(count)
	if end > int64(i.size) {
		if end > 1<<32-1 {
			return 0, fmt.Errorf("write would exceed maximum file size: %w", ErrNoSpace)
		}
		if err := fs.changeSize(i, uint32(end)); err != nil {
			return 0, err
		}
	}

	n, err := fs.copyIn(i, *pos, buf[:count])
	*pos += int64(n)
	if err != nil {
		return n, err
	}
	return n, fs.writeInode(i)
}

// truncate implements notify_change's size-change half (spec.md §6):
// directories are refused with ErrNotPermitted.
func (fs *FileSystem) truncate(i *inode, size uint32) error {
	if i.ftype == ftypeDirectory {
		return fmt.Errorf("cannot truncate a directory: %w", ErrNotPermitted)
	}
	return fs.changeSize(i, size)
}
