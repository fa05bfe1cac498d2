//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package file

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const blkSectorSizeGet = 0x1268

// CheckSectorSize confirms that, when f is backed by a real block device,
// the device's logical sector size divides blockSize evenly - a misaligned
// backing device would silently corrupt block boundaries on flush. For a
// plain file (the common case in tests and tooling) this is a no-op.
func CheckSectorSize(f *os.File, blockSize int64) error {
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat backing file: %w", err)
	}
	if fi.Mode()&os.ModeDevice == 0 {
		return nil
	}
	sectorSize, err := unix.IoctlGetInt(int(f.Fd()), blkSectorSizeGet)
	if err != nil {
		return fmt.Errorf("unable to get device logical sector size: %w", err)
	}
	if sectorSize <= 0 || blockSize%int64(sectorSize) != 0 {
		return fmt.Errorf("block size %d is not a multiple of device sector size %d", blockSize, sectorSize)
	}
	return nil
}
