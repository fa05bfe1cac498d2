package ospfs

// On-disk layout constants from spec.md §6. These are wire-format and
// compatibility-critical: do not change them without changing the on-disk
// representation everywhere.
const (
	// BlockSize is the size in bytes of one block.
	BlockSize = 1024
	// NDirect is the number of direct block pointers held in an inode.
	NDirect = 10
	// NIndirect is the number of block numbers held in one indirect block.
	NIndirect = 256
	// MaxNameLen is the maximum filename length in bytes, excluding the NUL
	// terminator.
	MaxNameLen = 58
	// MaxSymlinkLen is the maximum inline symlink target length in bytes,
	// excluding the terminator.
	MaxSymlinkLen = 60
	// DirentSize is the fixed size in bytes of one directory entry.
	DirentSize = 64
	// FreemapBlock is the index of the first free-block bitmap block.
	FreemapBlock = 2
	// RootIno is the inode number of the root directory; it is always
	// present and always a directory (I9).
	RootIno = 1
	// JournalIno is the reserved inode the replay_journal diagnostic hook
	// reads from (spec.md §6). Nothing in this package ever writes to it;
	// it exists purely so a host tool that wants to leave a textual trail
	// has a fixed, well-known place to put one.
	JournalIno = 2

	// superblockMagic identifies an ospfs image.
	superblockMagic uint32 = 0x05fc1234

	// maxFileBlocks is the number of blocks addressable through the
	// direct/indirect/doubly-indirect tree (spec.md §4.1); valid block
	// indices are 0..maxFileBlocks-1.
	maxFileBlocks = NDirect + NIndirect + NIndirect*NIndirect

	// inodeHeaderSize is the size in bytes of the fields common to every
	// inode variant: size, ftype, nlink, mode (spec.md §3, §9 - variants
	// are a tagged union sharing one header).
	inodeHeaderSize = 16
	// inodeTailSize is the size in bytes reserved after the header for
	// variant-specific data: either the 48-byte direct/indirect/indirect2
	// pointer tree, or the 61-byte inline symlink path. 64 covers both with
	// room to spare and keeps the on-disk inode a round 80 bytes.
	inodeTailSize = 64
	// inodeSize is the total fixed size of one inode-table entry on disk.
	inodeSize = inodeHeaderSize + inodeTailSize

	// blockNumberSize is the size in bytes of one block number as stored in
	// an inode's direct array or in an indirect/doubly-indirect block.
	blockNumberSize = 4
)

// ftype identifies which inode variant a given inode is.
type ftype uint32

const (
	ftypeFree ftype = iota
	ftypeRegular
	ftypeDirectory
	ftypeSymlink
)

// layout captures the block ranges computed once at Mkfs/Read time from the
// total block and inode counts.
type layout struct {
	totalBlocks   uint32
	totalInodes   uint32
	bitmapBlocks  uint32 // number of blocks holding the free bitmap
	inodeBlocks   uint32 // number of blocks holding the inode table
	firstDataBlock uint32
}

func computeLayout(totalBlocks, totalInodes uint32) layout {
	bitmapBlocks := ceilDiv(totalBlocks, BlockSize*8)
	inodesPerBlock := BlockSize / inodeSize
	inodeBlocks := ceilDiv(totalInodes, uint32(inodesPerBlock))
	return layout{
		totalBlocks:    totalBlocks,
		totalInodes:    totalInodes,
		bitmapBlocks:   bitmapBlocks,
		inodeBlocks:    inodeBlocks,
		firstDataBlock: FreemapBlock + bitmapBlocks + inodeBlocks,
	}
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (l layout) firstInodeBlock() uint32 {
	return FreemapBlock + l.bitmapBlocks
}
