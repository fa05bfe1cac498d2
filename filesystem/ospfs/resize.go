package ospfs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// L3: the resize engine. addBlock/removeBlock grow or shrink a file by
// exactly one block, allocating or releasing indirect/doubly-indirect
// structural blocks as needed and maintaining I1-I4. changeSize drives
// these one block at a time to reach a target size, rolling back to the
// original size if growth runs out of space partway through (spec.md
// §4.3).

// addBlock appends one data block to i, allocating whatever structural
// blocks (indirect, doubly-indirect) the new block count requires. On any
// allocation failure it frees everything it already allocated in this call
// and returns ErrNoSpace, leaving i untouched.
func (fs *FileSystem) addBlock(i *inode) error {
	n := i.blockCount()
	if n >= maxFileBlocks {
		return fmt.Errorf("file already at maximum addressable size: %w", ErrNoSpace)
	}

	var prevInd, prevDbl int64 = -1, -1
	if n > 0 {
		prevInd = indIdx(n - 1)
		prevDbl = dblIdx(n - 1)
	}
	curInd := indIdx(n)
	curDbl := dblIdx(n)

	needIndirect := curInd >= 0 && curInd != prevInd
	needDbl := curDbl >= 0 && curDbl != prevDbl

	var allocated []uint32
	rollback := func() {
		for _, b := range allocated {
			_ = fs.alloc.freeBlock(b)
		}
	}

	dataBlock, err := fs.alloc.allocBlock()
	if err != nil {
		return err
	}
	allocated = append(allocated, dataBlock)

	var newIndirectBlock, newDblBlock uint32
	if needIndirect {
		newIndirectBlock, err = fs.alloc.allocBlock()
		if err != nil {
			rollback()
			return err
		}
		allocated = append(allocated, newIndirectBlock)
	}
	if needDbl {
		newDblBlock, err = fs.alloc.allocBlock()
		if err != nil {
			rollback()
			return err
		}
		allocated = append(allocated, newDblBlock)
	}

	if err := fs.store.zeroBlock(dataBlock); err != nil {
		rollback()
		return err
	}

	switch {
	case curInd < 0:
		// direct region
		i.direct[dirIdx(n)] = dataBlock

	case curInd == 0:
		// singly-indirect region
		indirectBlockNo := i.indirect
		if needIndirect {
			indirectBlockNo = newIndirectBlock
		}
		var entries [NIndirect]uint32
		if !needIndirect {
			blk, err := fs.store.readBlock(indirectBlockNo)
			if err != nil {
				rollback()
				return fmt.Errorf("reading indirect block: %w", err)
			}
			entries = decodeIndirectBlock(blk)
		}
		entries[innerSlot(n)] = dataBlock
		if err := fs.store.writeBlock(indirectBlockNo, encodeIndirectBlock(entries)); err != nil {
			rollback()
			return err
		}
		i.indirect = indirectBlockNo

	default:
		// doubly-indirect region
		dblBlockNo := i.indirect2
		if needDbl {
			dblBlockNo = newDblBlock
		}
		var outerEntries [NIndirect]uint32
		if !needDbl {
			blk, err := fs.store.readBlock(dblBlockNo)
			if err != nil {
				rollback()
				return fmt.Errorf("reading doubly-indirect block: %w", err)
			}
			outerEntries = decodeIndirectBlock(blk)
		}

		innerBlockNo := outerEntries[outerSlot(n)]
		if needIndirect {
			innerBlockNo = newIndirectBlock
		}
		var innerEntries [NIndirect]uint32
		if !needIndirect {
			blk, err := fs.store.readBlock(innerBlockNo)
			if err != nil {
				rollback()
				return fmt.Errorf("reading inner indirect block: %w", err)
			}
			innerEntries = decodeIndirectBlock(blk)
		}
		innerEntries[innerSlot(n)] = dataBlock
		if err := fs.store.writeBlock(innerBlockNo, encodeIndirectBlock(innerEntries)); err != nil {
			rollback()
			return err
		}

		outerEntries[outerSlot(n)] = innerBlockNo
		if err := fs.store.writeBlock(dblBlockNo, encodeIndirectBlock(outerEntries)); err != nil {
			rollback()
			return err
		}
		i.indirect2 = dblBlockNo
	}

	i.size += BlockSize
	return nil
}

// removeBlock releases the last data block of i, and the indirect or
// doubly-indirect block that becomes empty as a result, if any (spec.md
// §4.3).
func (fs *FileSystem) removeBlock(i *inode) error {
	n := i.blockCount()
	if n == 0 {
		return fmt.Errorf("cannot remove a block from an empty file: %w", ErrIO)
	}
	last := n - 1

	dataBlock, ok, err := fs.blockNumberForIndex(i, last)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("missing data block %d (I3 violated): %w", last, ErrIO)
	}
	if err := fs.alloc.freeBlock(dataBlock); err != nil {
		return err
	}

	// Mirror add_block's boundary check exactly, applied to the block being
	// removed (index last = n-1): ind_idx(last) != ind_idx(last-1) means it
	// was the sole remaining user of its indirect block (spec.md §4.3).
	var prevInd, prevDbl int64 = -1, -1
	if last > 0 {
		prevInd = indIdx(last - 1)
		prevDbl = dblIdx(last - 1)
	}
	curInd := indIdx(last)
	curDbl := dblIdx(last)
	releaseIndirect := curInd >= 0 && curInd != prevInd
	releaseDbl := curDbl >= 0 && curDbl != prevDbl

	switch {
	case curInd < 0:
		i.direct[dirIdx(last)] = 0

	case curInd == 0:
		if i.indirect != 0 {
			blk, err := fs.store.readBlock(i.indirect)
			if err != nil {
				return fmt.Errorf("reading indirect block: %w", err)
			}
			entries := decodeIndirectBlock(blk)
			entries[innerSlot(last)] = 0
			if releaseIndirect {
				if err := fs.alloc.freeBlock(i.indirect); err != nil {
					return err
				}
				i.indirect = 0
			} else if err := fs.store.writeBlock(i.indirect, encodeIndirectBlock(entries)); err != nil {
				return err
			}
		}

	default:
		if i.indirect2 != 0 {
			outerBlk, err := fs.store.readBlock(i.indirect2)
			if err != nil {
				return fmt.Errorf("reading doubly-indirect block: %w", err)
			}
			outerEntries := decodeIndirectBlock(outerBlk)
			innerBlockNo := outerEntries[outerSlot(last)]
			if innerBlockNo != 0 {
				innerBlk, err := fs.store.readBlock(innerBlockNo)
				if err != nil {
					return fmt.Errorf("reading inner indirect block: %w", err)
				}
				innerEntries := decodeIndirectBlock(innerBlk)
				innerEntries[innerSlot(last)] = 0
				if releaseIndirect {
					if err := fs.alloc.freeBlock(innerBlockNo); err != nil {
						return err
					}
					outerEntries[outerSlot(last)] = 0
				} else if err := fs.store.writeBlock(innerBlockNo, encodeIndirectBlock(innerEntries)); err != nil {
					return err
				}
			}
			if releaseDbl {
				if err := fs.alloc.freeBlock(i.indirect2); err != nil {
					return err
				}
				i.indirect2 = 0
			} else if err := fs.store.writeBlock(i.indirect2, encodeIndirectBlock(outerEntries)); err != nil {
				return err
			}
		}
	}

	i.size = last * BlockSize
	return nil
}

// changeSize grows or shrinks i to want bytes, one block at a time. On an
// add_block failure during growth it shrinks back to the original size
// before returning the error, preserving I3. Directories cannot be shrunk
// (spec.md §4.3).
func (fs *FileSystem) changeSize(i *inode, want uint32) error {
	if i.ftype == ftypeDirectory && want < i.size {
		return fmt.Errorf("cannot shrink a directory: %w", ErrNotPermitted)
	}

	wantBlocks := ceilDiv(want, BlockSize)
	original := i.size

	for i.blockCount() < wantBlocks {
		if err := fs.addBlock(i); err != nil {
			if fs.log != nil {
				fs.log.WithFields(logrus.Fields{
					"inode":      i.number,
					"haveBlocks": i.blockCount(),
					"wantBlocks": wantBlocks,
				}).Warn("rolling back partial grow after allocation failure")
			}
			// roll back to the original size before surfacing the error
			for i.blockCount() > ceilDiv(original, BlockSize) {
				if rerr := fs.removeBlock(i); rerr != nil {
					return rerr
				}
			}
			i.size = original
			return err
		}
	}
	for i.blockCount() > wantBlocks {
		if err := fs.removeBlock(i); err != nil {
			return err
		}
	}
	i.size = want
	return fs.writeInode(i)
}
