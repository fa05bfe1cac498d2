package ospfs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// superblock is block 1 of the image (spec.md §3). FilesystemUUID is not
// part of any spec.md invariant; it is identity metadata in the same spirit
// as ext4's s_uuid (SPEC_FULL.md §C), stamped once at Mkfs and otherwise
// inert.
type superblock struct {
	magic            uint32
	totalBlocks      uint32
	totalInodes      uint32
	firstInodeBlock  uint32
	FilesystemUUID   [16]byte
}

const superblockEncodedSize = 4 + 4 + 4 + 4 + 16

func newSuperblock(l layout) superblock {
	var id [16]byte
	if u, err := uuid.NewRandom(); err == nil {
		id = u
	}
	return superblock{
		magic:           superblockMagic,
		totalBlocks:     l.totalBlocks,
		totalInodes:     l.totalInodes,
		firstInodeBlock: l.firstInodeBlock(),
		FilesystemUUID:  id,
	}
}

func (sb superblock) encode() []byte {
	buf := make([]byte, BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], sb.magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.totalBlocks)
	binary.LittleEndian.PutUint32(buf[8:12], sb.totalInodes)
	binary.LittleEndian.PutUint32(buf[12:16], sb.firstInodeBlock)
	copy(buf[16:32], sb.FilesystemUUID[:])
	return buf
}

func decodeSuperblock(buf []byte) (superblock, error) {
	if len(buf) < superblockEncodedSize {
		return superblock{}, fmt.Errorf("superblock truncated: %w", ErrIO)
	}
	sb := superblock{
		magic:           binary.LittleEndian.Uint32(buf[0:4]),
		totalBlocks:     binary.LittleEndian.Uint32(buf[4:8]),
		totalInodes:     binary.LittleEndian.Uint32(buf[8:12]),
		firstInodeBlock: binary.LittleEndian.Uint32(buf[12:16]),
	}
	copy(sb.FilesystemUUID[:], buf[16:32])
	if sb.magic != superblockMagic {
		return superblock{}, fmt.Errorf("bad superblock magic %#x: %w", sb.magic, ErrIO)
	}
	return sb, nil
}

func (sb superblock) layout() layout {
	l := computeLayout(sb.totalBlocks, sb.totalInodes)
	return l
}
