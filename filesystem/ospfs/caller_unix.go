//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package ospfs

import "golang.org/x/sys/unix"

// processEUID returns the real process's effective UID, used by
// CallerFromProcess to drive conditional-symlink resolution (spec.md §4.6)
// when there is no host kernel supplying a syscall-originating caller
// identity - e.g. in tests and the ospfsutil CLI.
func processEUID() uint32 {
	return uint32(unix.Geteuid())
}
