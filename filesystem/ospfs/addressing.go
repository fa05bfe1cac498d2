package ospfs

import "fmt"

// L2: translation of a file block index into the identity of the indirect
// or doubly-indirect block that services it, and ultimately into a physical
// block number (spec.md §4.1).
//
// dirIdx, indIdx, and dblIdx return a "segment identity": two consecutive
// block indices n-1 and n need a new structural block exactly when their
// identities differ. A negative identity means "this tier is not involved
// at this block index at all" and two negative identities never compare
// equal to two different negative sentinels from different tiers, but do
// compare equal to each other within the same tier (e.g. dblIdx is -1 for
// every block index below the doubly-indirect region, so two such indices
// never trigger a doubly-indirect allocation).

// dirIdx returns the direct-block slot for b, or -1 if b is not serviced by
// a direct pointer.
func dirIdx(b uint32) int64 {
	if b < NDirect {
		return int64(b)
	}
	return -1
}

// indIdx returns the identity of the indirect block (singly-indirect, or
// one of the doubly-indirect tree's inner indirect blocks) that services b,
// or -1 if b is serviced directly and needs no indirect block at all.
//
// Identity 0 is the singly-indirect block. Identities 1.. are inner
// indirect blocks within the doubly-indirect region, one per 256-block
// span, so indIdx changes every time a new inner indirect block must be
// allocated or released.
func indIdx(b uint32) int64 {
	switch {
	case b < NDirect:
		return -1
	case b < NDirect+NIndirect:
		return 0
	default:
		bOuter := b - NDirect - NIndirect
		return 1 + int64(bOuter/NIndirect)
	}
}

// dblIdx returns the identity of the doubly-indirect block that services b,
// or -1 if b is below the doubly-indirect region. There is only ever one
// doubly-indirect block per inode, so the only possible identities are -1
// and 0.
func dblIdx(b uint32) int64 {
	if b < NDirect+NIndirect {
		return -1
	}
	return 0
}

// outerSlot returns the doubly-indirect block's outer slot index for b. It
// is only meaningful when dblIdx(b) >= 0.
func outerSlot(b uint32) uint32 {
	return (b - NDirect - NIndirect) / NIndirect
}

// innerSlot returns the slot within whichever indirect block services b
// (the singly-indirect block, or one of the doubly-indirect tree's inner
// indirect blocks).
func innerSlot(b uint32) uint32 {
	if b < NDirect+NIndirect {
		return b - NDirect
	}
	return (b - NDirect - NIndirect) % NIndirect
}

// decodeIndirectBlock parses a raw indirect (or doubly-indirect) block into
// its NIndirect block numbers.
func decodeIndirectBlock(buf []byte) [NIndirect]uint32 {
	var out [NIndirect]uint32
	for i := range out {
		off := i * blockNumberSize
		out[i] = leUint32(buf[off : off+blockNumberSize])
	}
	return out
}

func encodeIndirectBlock(entries [NIndirect]uint32) []byte {
	buf := make([]byte, BlockSize)
	for i, e := range entries {
		off := i * blockNumberSize
		putLeUint32(buf[off:off+blockNumberSize], e)
	}
	return buf
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// blockNumberForIndex walks the pointer tree to resolve the physical block
// number backing file-block index b of i. It reports "no block" (ok=false,
// nil error) if b is past the addressable range, if i is a symlink (symlink
// targets live inline, not in data blocks; spec.md §4.1), or if any link on
// the way to b is missing; it does not compare b against i's size. Callers
// that know b lies within i's size treat ok=false as an I3 violation
// (ErrIO). A non-nil error comes only from failing to read a tree block.
func (fs *FileSystem) blockNumberForIndex(i *inode, b uint32) (blockno uint32, ok bool, err error) {
	if i.ftype == ftypeSymlink || b >= maxFileBlocks {
		return 0, false, nil
	}

	if d := dirIdx(b); d >= 0 {
		bn := i.direct[d]
		return bn, bn != 0, nil
	}

	ind := indIdx(b)
	if ind == 0 {
		// singly-indirect region
		if i.indirect == 0 {
			return 0, false, nil
		}
		blk, err := fs.store.readBlock(i.indirect)
		if err != nil {
			return 0, false, fmt.Errorf("reading indirect block for inode %d: %w", i.number, err)
		}
		entries := decodeIndirectBlock(blk)
		bn := entries[innerSlot(b)]
		return bn, bn != 0, nil
	}

	// doubly-indirect region
	if i.indirect2 == 0 {
		return 0, false, nil
	}
	outerBlk, err := fs.store.readBlock(i.indirect2)
	if err != nil {
		return 0, false, fmt.Errorf("reading doubly-indirect block for inode %d: %w", i.number, err)
	}
	outerEntries := decodeIndirectBlock(outerBlk)
	innerBlockNo := outerEntries[outerSlot(b)]
	if innerBlockNo == 0 {
		return 0, false, nil
	}
	innerBlk, err := fs.store.readBlock(innerBlockNo)
	if err != nil {
		return 0, false, fmt.Errorf("reading inner indirect block for inode %d: %w", i.number, err)
	}
	innerEntries := decodeIndirectBlock(innerBlk)
	bn := innerEntries[innerSlot(b)]
	return bn, bn != 0, nil
}
