package gpt

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/osbuild/cgpt-layout/internal/disk"
)

// var alias for exec.Command() that can be mocked for testing
var execCommand = exec.Command

// CgptWriter writes the partition table by running cgpt.
type CgptWriter struct {
	Binary string
}

func NewCgptWriter(binary string) *CgptWriter {
	if binary == "" {
		binary = DefaultCgptBinary
	}
	return &CgptWriter{Binary: binary}
}

func (w *CgptWriter) run(args ...string) error {
	logrus.WithField("args", args).Debugf("running %s", w.Binary)

	cmd := execCommand(w.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s failed: %w: %s", w.Binary, args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (w *CgptWriter) WriteGPT(layout *disk.Layout, diskPath string) error {
	if err := checkLayout(layout); err != nil {
		return err
	}
	if err := prepareTarget(diskPath, layout.DiskBytes(), layout.BlockSize); err != nil {
		return err
	}

	if err := w.run("create", diskPath); err != nil {
		return err
	}
	for idx := range layout.Entries {
		e := &layout.Entries[idx]
		err := w.run("add",
			"-i", strconv.Itoa(e.Number()),
			"-b", strconv.FormatUint(e.StartSector, 10),
			"-s", strconv.FormatUint(e.Blocks, 10),
			"-t", e.Type,
			"-l", e.Name(),
			"-u", e.UUID,
			diskPath)
		if err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"disk":       diskPath,
		"layout":     layout.ImageType,
		"partitions": len(layout.Entries),
	}).Debug("wrote GPT with cgpt")
	return nil
}

func (w *CgptWriter) WriteMbrBoot(table *disk.Table, diskPath, bootCodePath string) error {
	esp, _, err := bootPartition(table)
	if err != nil {
		return err
	}

	return w.run("boot", "-p", "-b", bootCodePath, "-i", strconv.Itoa(esp.Number()), diskPath)
}
