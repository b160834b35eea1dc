//go:build !linux

package gpt

import (
	"errors"
	"os"
)

func isBlockDevice(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mode := info.Mode()
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0, nil
}

func deviceSectorSize(f *os.File) (uint64, error) {
	return 0, errors.New("block devices are only supported on Linux")
}
