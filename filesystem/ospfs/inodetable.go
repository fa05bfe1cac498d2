package ospfs

import "fmt"

// inodesPerBlock is how many fixed-size inode entries pack into one block.
const inodesPerBlock = BlockSize / inodeSize

// readInode loads inode number n from the inode table.
func (fs *FileSystem) readInode(n uint32) (*inode, error) {
	if n == 0 || n >= fs.sb.totalInodes {
		return nil, fmt.Errorf("inode %d out of range: %w", n, ErrIO)
	}
	blockIdx := fs.l.firstInodeBlock() + n/uint32(inodesPerBlock)
	slot := int(n % uint32(inodesPerBlock))
	blk, err := fs.store.readBlock(blockIdx)
	if err != nil {
		return nil, fmt.Errorf("reading inode %d: %w", n, err)
	}
	start := slot * inodeSize
	return decodeInode(n, blk[start:start+inodeSize]), nil
}

// writeInode persists an inode back to its slot in the inode table.
func (fs *FileSystem) writeInode(i *inode) error {
	if i.number == 0 || i.number >= fs.sb.totalInodes {
		return fmt.Errorf("inode %d out of range: %w", i.number, ErrIO)
	}
	blockIdx := fs.l.firstInodeBlock() + i.number/uint32(inodesPerBlock)
	slot := int(i.number % uint32(inodesPerBlock))
	blk, err := fs.store.readBlock(blockIdx)
	if err != nil {
		return fmt.Errorf("reading inode block for %d: %w", i.number, err)
	}
	start := slot * inodeSize
	copy(blk[start:start+inodeSize], encodeInode(i))
	return fs.store.writeBlock(blockIdx, blk)
}

// allocInode finds the first inode slot whose nlink is 0 (spec.md §4.5),
// fully zeroes it (spec.md §9 open question fix), and returns it unwritten
// - callers fill in fields and call writeInode. Slot 0 is never considered:
// it is reserved by convention and RootIno begins numbering at 1. JournalIno
// is likewise skipped so replay_journal always has a fixed slot to read.
func (fs *FileSystem) allocInode() (*inode, error) {
	for n := uint32(RootIno + 1); n < fs.sb.totalInodes; n++ {
		if n == JournalIno {
			continue
		}
		ino, err := fs.readInode(n)
		if err != nil {
			return nil, err
		}
		if ino.isFree() {
			ino.zeroed()
			return ino, nil
		}
	}
	return nil, fmt.Errorf("inode table full (%d inodes): %w", fs.sb.totalInodes, ErrNoSpace)
}
