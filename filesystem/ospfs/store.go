package ospfs

import (
	"fmt"

	"github.com/ospfs/ospfs/backend"
)

// store is the L0 block store: a flat array of BlockSize-byte blocks backed
// by a backend.Storage. It knows nothing about inodes, bitmaps, or
// directories - only block-granularity reads and writes.
type store struct {
	backend backend.Storage
	nblocks uint32
}

func newStore(b backend.Storage, nblocks uint32) *store {
	return &store{backend: b, nblocks: nblocks}
}

func (s *store) readBlock(n uint32) ([]byte, error) {
	if n >= s.nblocks {
		return nil, fmt.Errorf("block %d out of range (have %d): %w", n, s.nblocks, ErrIO)
	}
	buf := make([]byte, BlockSize)
	if _, err := s.backend.ReadAt(buf, int64(n)*BlockSize); err != nil {
		return nil, fmt.Errorf("reading block %d: %w", n, ErrBadAddress)
	}
	return buf, nil
}

func (s *store) writeBlock(n uint32, data []byte) error {
	if n >= s.nblocks {
		return fmt.Errorf("block %d out of range (have %d): %w", n, s.nblocks, ErrIO)
	}
	if len(data) != BlockSize {
		return fmt.Errorf("write of %d bytes is not one block: %w", len(data), ErrIO)
	}
	writable, err := s.backend.Writable()
	if err != nil {
		return fmt.Errorf("backing store is not writable: %w", err)
	}
	if _, err := writable.WriteAt(data, int64(n)*BlockSize); err != nil {
		return fmt.Errorf("writing block %d: %w", n, ErrBadAddress)
	}
	return nil
}

// zeroBlock writes BlockSize zero bytes to block n, as required when a new
// data/indirect/doubly-indirect block is allocated (spec.md §4.3 step 3).
func (s *store) zeroBlock(n uint32) error {
	return s.writeBlock(n, make([]byte, BlockSize))
}
