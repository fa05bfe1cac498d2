package ospfs

import "errors"

// Error taxonomy from spec.md §7. Each entry point wraps one of these
// sentinels with fmt.Errorf("...: %w", ErrX) so callers can still
// errors.Is() against the symbolic category while getting a useful message.
var (
	// ErrNoSpace is returned when the free bitmap is exhausted or the inode
	// table has no free slot.
	ErrNoSpace = errors.New("no space")
	// ErrNameTooLong is returned when a filename or symlink target exceeds
	// MAXNAMELEN/MAXSYMLINKLEN.
	ErrNameTooLong = errors.New("name too long")
	// ErrExists is returned on a dirent collision during create/link/symlink.
	ErrExists = errors.New("already exists")
	// ErrNotFound is returned when a lookup or unlink target is missing.
	ErrNotFound = errors.New("not found")
	// ErrBadAddress is returned when a user-buffer copy primitive faults.
	ErrBadAddress = errors.New("bad address")
	// ErrIO is returned when the pointer tree violates I3 (metadata
	// inconsistency discovered while addressing a block).
	ErrIO = errors.New("i/o error")
	// ErrNotPermitted is returned for operations disallowed by type, such as
	// truncating a directory.
	ErrNotPermitted = errors.New("operation not permitted")
	// ErrOutOfMemory is returned when the host refuses to allocate an
	// in-memory handle for a returned object.
	ErrOutOfMemory = errors.New("out of memory")
)
