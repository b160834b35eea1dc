package gpt

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/sirupsen/logrus"
)

// prepareTarget makes sure diskPath can hold size bytes. Missing paths and
// regular files are created or grown, never shrunk. Block devices are only
// checked.
func prepareTarget(diskPath string, size, blockSize uint64) error {
	if size > math.MaxInt64 {
		return fmt.Errorf("disk size of %d bytes is too large", size)
	}

	info, err := os.Stat(diskPath)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.WithFields(logrus.Fields{"disk": diskPath, "size": size}).Debug("creating disk image")
		f, err := os.OpenFile(diskPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return fmt.Errorf("cannot create disk image: %w", err)
		}
		defer f.Close()
		if err := f.Truncate(int64(size)); err != nil {
			return fmt.Errorf("cannot resize disk image %s: %w", diskPath, err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("cannot access %s: %w", diskPath, err)
	}

	blockDevice, err := isBlockDevice(diskPath)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", diskPath, err)
	}

	switch {
	case blockDevice:
		return checkDevice(diskPath, size, blockSize)
	case info.Mode().IsRegular():
		if uint64(info.Size()) >= size {
			return nil
		}
		logrus.WithFields(logrus.Fields{"disk": diskPath, "size": size}).Debug("growing disk image")
		if err := os.Truncate(diskPath, int64(size)); err != nil {
			return fmt.Errorf("cannot resize disk image %s: %w", diskPath, err)
		}
		return nil
	}
	return fmt.Errorf("%s is neither a regular file nor a block device", diskPath)
}

func checkDevice(diskPath string, size, blockSize uint64) error {
	f, err := os.Open(diskPath)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", diskPath, err)
	}
	defer f.Close()

	sectorSize, err := deviceSectorSize(f)
	if err != nil {
		return fmt.Errorf("cannot get sector size of %s: %w", diskPath, err)
	}
	if sectorSize != blockSize {
		return fmt.Errorf("device %s has %d byte sectors, the layout uses %d byte blocks", diskPath, sectorSize, blockSize)
	}

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("cannot get size of %s: %w", diskPath, err)
	}
	if uint64(end) < size {
		return fmt.Errorf("device %s is too small: %d bytes, the layout needs %d", diskPath, end, size)
	}
	return nil
}
