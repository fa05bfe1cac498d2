// Package ospfs implements the core of an in-memory, block-structured
// POSIX-style filesystem: block addressing, a free-block bitmap allocator,
// a file resize engine, a directory engine, and a symbolic-link resolver
// including conditional symlinks. See SPEC_FULL.md for the full design.
package ospfs

import (
	"fmt"

	"github.com/ospfs/ospfs/backend"
	fsiface "github.com/ospfs/ospfs/filesystem"
)

// FileSystem is the L7 VFS adapter: the filesystem.FileSystem implementation
// a host kernel's syscall layer calls into. It owns the superblock, layout,
// block store, and allocator, and dispatches into L3-L6 for the actual
// mutation logic.
type FileSystem struct {
	sb    superblock
	l     layout
	store *store
	alloc *allocator
	log   logger
}

var _ fsiface.FileSystem = (*FileSystem)(nil)

// MkfsOptions configures a fresh filesystem image.
type MkfsOptions struct {
	// TotalBlocks is the size of the simulated disk, in blocks.
	TotalBlocks uint32
	// InodeCount is the number of inode-table slots to reserve.
	InodeCount uint32
	// Logger overrides the default structured logger (SPEC_FULL.md §B.1).
	Logger logger
}

// Mkfs formats b as a fresh ospfs image and returns a mounted FileSystem
// with only the root directory present (I9).
func Mkfs(b backend.Storage, opts MkfsOptions) (*FileSystem, error) {
	if opts.TotalBlocks == 0 {
		return nil, fmt.Errorf("total blocks must be positive: %w", ErrNoSpace)
	}
	if opts.InodeCount == 0 {
		opts.InodeCount = opts.TotalBlocks / 4
		if opts.InodeCount < 16 {
			opts.InodeCount = 16
		}
	}
	log := opts.Logger
	if log == nil {
		log = defaultLogger()
	}

	l := computeLayout(opts.TotalBlocks, opts.InodeCount)
	if l.firstDataBlock >= l.totalBlocks {
		return nil, fmt.Errorf("disk too small to hold superblock, bitmap, and inode table: %w", ErrNoSpace)
	}

	s := newStore(b, l.totalBlocks)

	// zero every metadata block so stale bytes never leak into a fresh image
	for n := uint32(0); n < l.firstDataBlock; n++ {
		if err := s.zeroBlock(n); err != nil {
			return nil, fmt.Errorf("zeroing metadata block %d: %w", n, err)
		}
	}

	sb := newSuperblock(l)
	if err := s.writeBlock(1, sb.encode()); err != nil {
		return nil, fmt.Errorf("writing superblock: %w", err)
	}

	alloc := newAllocator(s, l, log)
	if err := alloc.flush(); err != nil {
		return nil, fmt.Errorf("writing initial freemap: %w", err)
	}

	fs := &FileSystem{sb: sb, l: l, store: s, alloc: alloc, log: log}

	root := &inode{number: RootIno, ftype: ftypeDirectory, nlink: 1, mode: 0o755}
	if err := fs.writeInode(root); err != nil {
		return nil, fmt.Errorf("writing root inode: %w", err)
	}
	if err := fs.initRootDirectory(root); err != nil {
		return nil, fmt.Errorf("initializing root directory: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"totalBlocks": l.totalBlocks,
		"totalInodes": l.totalInodes,
		"uuid":        sb.FilesystemUUID,
	}).Info("formatted ospfs image")

	return fs, nil
}

// ReadOptions configures mounting an existing image.
type ReadOptions struct {
	Logger logger
}

// Read mounts an existing ospfs image found on b.
func Read(b backend.Storage, opts ReadOptions) (*FileSystem, error) {
	log := opts.Logger
	if log == nil {
		log = defaultLogger()
	}

	probe := newStore(b, 2)
	sbBlock, err := probe.readBlock(1)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb, err := decodeSuperblock(sbBlock)
	if err != nil {
		return nil, err
	}
	l := sb.layout()
	s := newStore(b, l.totalBlocks)

	alloc, err := loadAllocator(s, l, log)
	if err != nil {
		return nil, err
	}

	fs := &FileSystem{sb: sb, l: l, store: s, alloc: alloc, log: log}

	root, err := fs.readInode(RootIno)
	if err != nil {
		return nil, fmt.Errorf("reading root inode: %w", err)
	}
	if root.ftype != ftypeDirectory {
		return nil, fmt.Errorf("root inode is not a directory (I9 violated): %w", ErrIO)
	}

	fs.replayJournal(log)

	log.WithField("uuid", sb.FilesystemUUID).Debug("mounted ospfs image")
	return fs, nil
}

// UUID returns the filesystem's identity, stamped once at Mkfs time.
func (fs *FileSystem) UUID() [16]byte { return fs.sb.FilesystemUUID }

// FreeBlocks returns the current count of free data blocks.
func (fs *FileSystem) FreeBlocks() int { return fs.alloc.freeCount() }

// Type implements filesystem.FileSystem.
func (fs *FileSystem) Type() fsiface.Type { return fsiface.TypeOspfs }

// Label is unsupported; ospfs images carry no volume label, only the
// UUID stamped at Mkfs time.
func (fs *FileSystem) Label() string { return "" }

// SetLabel is unsupported for the same reason.
func (fs *FileSystem) SetLabel(string) error { return fsiface.ErrNotSupported }
