package ospfs

import (
	"fmt"

	"github.com/ospfs/ospfs/util/bitmap"
)

// allocator is L1: the bitmap-based free-block allocator (spec.md §4.2).
// Bit convention is fixed by the wire format (spec.md §6): bit=1 means
// free, bit=0 means in-use. util/bitmap.Bitmap is convention-agnostic (it
// just tracks set/clear bits), so allocator owns the free=1 interpretation
// on top of it rather than relying on the helper's own FirstFree/FirstSet
// naming, which assumes the opposite convention.
type allocator struct {
	store  *store
	l      layout
	bm     *bitmap.Bitmap
	logger logger
}

func loadAllocator(s *store, l layout, log logger) (*allocator, error) {
	raw := make([]byte, 0, l.bitmapBlocks*BlockSize)
	for i := uint32(0); i < l.bitmapBlocks; i++ {
		blk, err := s.readBlock(FreemapBlock + i)
		if err != nil {
			return nil, fmt.Errorf("loading freemap block %d: %w", i, err)
		}
		raw = append(raw, blk...)
	}
	return &allocator{store: s, l: l, bm: bitmap.FromBytes(raw), logger: log}, nil
}

// newAllocator builds an all-free bitmap for a fresh Mkfs, then reserves
// every block below firstDataBlock (boot, super, bitmap, inode table) as
// permanently in-use, per spec.md §4.2.
func newAllocator(s *store, l layout, log logger) *allocator {
	bm := bitmap.NewBits(int(l.totalBlocks))
	a := &allocator{store: s, l: l, bm: bm, logger: log}
	for b := uint32(0); b < l.totalBlocks; b++ {
		if b < l.firstDataBlock {
			continue // leave reserved blocks at their zero value (in-use)
		}
		_ = a.bm.Set(int(b)) // free
	}
	return a
}

func (a *allocator) flush() error {
	raw := a.bm.ToBytes()
	for i := uint32(0); i < a.l.bitmapBlocks; i++ {
		start := i * BlockSize
		end := start + BlockSize
		if end > uint32(len(raw)) {
			end = uint32(len(raw))
		}
		block := make([]byte, BlockSize)
		copy(block, raw[start:end])
		if err := a.store.writeBlock(FreemapBlock+i, block); err != nil {
			return fmt.Errorf("flushing freemap block %d: %w", i, err)
		}
	}
	return nil
}

func (a *allocator) isFree(b uint32) bool {
	if b < a.l.firstDataBlock || b >= a.l.totalBlocks {
		return false
	}
	free, err := a.bm.IsSet(int(b))
	return err == nil && free
}

// allocBlock scans the bitmap from the first data block onward (spec.md
// §4.2) and returns the first free block, marking it in-use. It returns 0
// (never a valid data block, since block 0 is the boot sector) wrapped in
// ErrNoSpace when the bitmap is exhausted.
func (a *allocator) allocBlock() (uint32, error) {
	for b := a.l.firstDataBlock; b < a.l.totalBlocks; b++ {
		free, err := a.bm.IsSet(int(b))
		if err != nil {
			return 0, fmt.Errorf("scanning freemap at block %d: %w", b, ErrIO)
		}
		if !free {
			continue
		}
		if err := a.bm.Clear(int(b)); err != nil {
			return 0, fmt.Errorf("marking block %d in-use: %w", b, ErrIO)
		}
		if err := a.flush(); err != nil {
			return 0, err
		}
		return b, nil
	}
	return 0, fmt.Errorf("no free blocks in %d total: %w", a.l.totalBlocks, ErrNoSpace)
}

// freeBlock marks b free. Callers must not double-free; per spec.md §4.2
// this is not detected for in-range blocks, but freeing a reserved block
// (below firstDataBlock) or an out-of-range block is always refused.
func (a *allocator) freeBlock(b uint32) error {
	if b < a.l.firstDataBlock || b >= a.l.totalBlocks {
		return fmt.Errorf("refusing to free reserved/out-of-range block %d: %w", b, ErrIO)
	}
	if err := a.bm.Set(int(b)); err != nil {
		return fmt.Errorf("marking block %d free: %w", b, ErrIO)
	}
	return a.flush()
}

// freeCount returns the number of free data blocks, used by tests exercising
// the free-block-count laws in spec.md §8.
func (a *allocator) freeCount() int {
	count := 0
	for b := a.l.firstDataBlock; b < a.l.totalBlocks; b++ {
		if a.isFree(b) {
			count++
		}
	}
	return count
}
