//go:build linux

package gpt

import (
	"os"

	"golang.org/x/sys/unix"
)

func isBlockDevice(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}

// deviceSectorSize returns the logical sector size of a block device.
func deviceSectorSize(f *os.File) (uint64, error) {
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return 0, err
	}
	return uint64(size), nil
}
