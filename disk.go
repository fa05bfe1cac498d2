// Package ospfs is the top-level entry point: a Disk owns a block-addressable
// backing store - an in-memory arena or a host file/device - and the single
// ospfs filesystem mounted on it. Unlike the teacher's diskfs.Disk, which
// carries a partition table and dispatches across several on-disk formats,
// an ospfs Disk is always exactly one filesystem over the whole backing
// store: there is no partition table and no format other than ospfs itself.
package ospfs

import (
	"fmt"

	"github.com/ospfs/ospfs/backend"
	backendfile "github.com/ospfs/ospfs/backend/file"
	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/filesystem"
	ospfsfs "github.com/ospfs/ospfs/filesystem/ospfs"
	"github.com/sirupsen/logrus"
)

// Disk owns a backend.Storage and, once CreateFilesystem or Mount has run,
// the filesystem.FileSystem mounted on it.
type Disk struct {
	backend backend.Storage
	size    int64
	log     logrus.FieldLogger
	fs      filesystem.FileSystem
}

// Option configures a Disk at construction time, mirroring the
// functional-options shape the teacher uses for ext4.Create/ext4.Read.
type Option func(*Disk)

// WithLogger overrides the structured logger a Disk hands down to
// CreateFilesystem/Mount when the caller's own MkfsOptions/ReadOptions
// leaves Logger nil.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Disk) { d.log = log }
}

// WithRegion confines the Disk to the byte range [offset, offset+size) of
// its backing store, via backend.Sub - the same mechanism the teacher uses
// to hand each partition its own view of the underlying device. Useful for
// embedding an ospfs image inside a larger container file at a non-zero
// offset (e.g. after a fixed header) instead of owning the whole file.
func WithRegion(offset, size int64) Option {
	return func(d *Disk) {
		d.backend = backend.Sub(d.backend, offset, size)
		d.size = size
	}
}

// Create wraps an already-open backend.Storage of the given size as a Disk,
// ready to be formatted with CreateFilesystem. It performs no I/O itself;
// b is expected to already be sized to size (mem.New or
// backend/file.CreateFromPath both guarantee this).
func Create(b backend.Storage, size int64, opts ...Option) (*Disk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("disk size must be positive, got %d", size)
	}
	d := &Disk{backend: b, size: size}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// CreateMem is a convenience constructor over backend/mem: the common case
// for tests and in-process use, where the "disk" never touches the host
// filesystem at all.
func CreateMem(size int64, opts ...Option) (*Disk, error) {
	return Create(mem.New(size), size, opts...)
}

// CreateFile creates a new host-file-backed Disk at pathName, which must
// not already exist, sized size bytes. Grounded on the teacher's
// diskfs.Create, minus the Format/partition-table parameters that don't
// apply to a single-format filesystem.
func CreateFile(pathName string, size int64, opts ...Option) (*Disk, error) {
	b, err := backendfile.CreateFromPath(pathName, size)
	if err != nil {
		return nil, fmt.Errorf("creating disk file %s: %w", pathName, err)
	}
	return Create(b, size, opts...)
}

// Open mounts an existing backend.Storage as a Disk, sizing itself from
// Stat. Use this after Create+CreateFilesystem when re-opening a snapshot
// that already holds a formatted image; pair it with Disk.Mount to get the
// filesystem.FileSystem back.
func Open(b backend.Storage, opts ...Option) (*Disk, error) {
	info, err := b.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat backing store: %w", err)
	}
	d := &Disk{backend: b, size: info.Size()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// OpenFile opens an existing host file or block device at pathName as a
// Disk. Grounded on the teacher's diskfs.Open, minus GetPartitionTable:
// ospfs images carry no partition table to detect.
func OpenFile(pathName string, readOnly bool, opts ...Option) (*Disk, error) {
	b, err := backendfile.OpenFromPath(pathName, readOnly)
	if err != nil {
		return nil, fmt.Errorf("opening disk file %s: %w", pathName, err)
	}
	return Open(b, opts...)
}

// CreateFilesystem formats the Disk's backing store as a fresh ospfs image.
// If opts.TotalBlocks is left at zero, it defaults to as many blocks as the
// Disk's size holds.
func (d *Disk) CreateFilesystem(opts ospfsfs.MkfsOptions) (filesystem.FileSystem, error) {
	if opts.TotalBlocks == 0 {
		opts.TotalBlocks = uint32(d.size / ospfsfs.BlockSize)
	}
	if opts.Logger == nil {
		opts.Logger = d.log
	}
	fsys, err := ospfsfs.Mkfs(d.backend, opts)
	if err != nil {
		return nil, err
	}
	d.fs = fsys
	return fsys, nil
}

// Mount reads an already-formatted ospfs image off the Disk's backing
// store, the read-side counterpart to CreateFilesystem.
func (d *Disk) Mount(opts ospfsfs.ReadOptions) (filesystem.FileSystem, error) {
	if opts.Logger == nil {
		opts.Logger = d.log
	}
	fsys, err := ospfsfs.Read(d.backend, opts)
	if err != nil {
		return nil, err
	}
	d.fs = fsys
	return fsys, nil
}

// Filesystem returns the filesystem mounted by a prior CreateFilesystem or
// Mount call, or nil if neither has run yet.
func (d *Disk) Filesystem() filesystem.FileSystem {
	return d.fs
}

// Size reports the Disk's total backing-store size in bytes.
func (d *Disk) Size() int64 {
	return d.size
}
