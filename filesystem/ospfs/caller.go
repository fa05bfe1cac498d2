package ospfs

// Caller carries the identity of whatever issued the current operation,
// the way a host VFS would supply it from the syscall context (spec.md
// §4.6, §6). It is the one piece of host-kernel glue this package cannot
// avoid taking a dependency on, since conditional-symlink resolution is
// part of THE CORE rather than the VFS adapter.
type Caller struct {
	UID uint32
}

// CallerFromProcess builds a Caller from the real OS process's effective
// UID (golang.org/x/sys/unix.Geteuid on unix platforms). Used by tests and
// the ospfsutil CLI, and as the default identity for the plain
// filesystem.FileSystem interface methods that don't take a Caller.
func CallerFromProcess() Caller {
	return Caller{UID: processEUID()}
}

// IsRoot reports whether the caller has effective UID 0.
func (c Caller) IsRoot() bool { return c.UID == 0 }
