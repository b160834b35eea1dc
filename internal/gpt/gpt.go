// Package gpt writes placed partition tables to disk images and block
// devices. Two backends exist: a native one built on go-diskfs and one that
// drives the cgpt tool.
package gpt

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	gpttable "github.com/diskfs/go-diskfs/partition/gpt"

	"github.com/osbuild/cgpt-layout/internal/disk"
)

const (
	BackendNative = "native"
	BackendCgpt   = "cgpt"

	// DefaultCgptBinary is looked up in $PATH.
	DefaultCgptBinary = "cgpt"
)

// maxLabelLength is the size of the name field of a GPT entry in UTF-16
// code units.
const maxLabelLength = 36

// minBlockSize is the smallest sector that holds a GPT header and an MBR.
const minBlockSize = 512

// bootCodeSize is the size of the boot code area of a protective MBR. The
// unique GUID of the boot partition follows it.
const bootCodeSize = 424

// Writer emits a partition table onto a disk image or block device.
//
// WriteGPT creates a fresh GPT with every entry of layout at its computed
// position. WriteMbrBoot installs boot code into the protective MBR and
// points it at the EFI system partition of table, which must already exist
// on disk. Nothing is written unless the layout passes validation, and an
// error leaves the target in an unusable state.
type Writer interface {
	WriteGPT(layout *disk.Layout, diskPath string) error
	WriteMbrBoot(table *disk.Table, diskPath, bootCodePath string) error
}

// New returns the writer for the named backend.
func New(backend, cgptBinary string) (Writer, error) {
	switch backend {
	case "", BackendNative:
		return NewNativeWriter(), nil
	case BackendCgpt:
		return NewCgptWriter(cgptBinary), nil
	}
	return nil, fmt.Errorf("unknown GPT backend %q", backend)
}

// Entry is a partition entry read back from a disk.
type Entry struct {
	Start    uint64 // first sector
	End      uint64 // last sector
	Size     uint64 // bytes
	TypeGUID string
	Type     string // cgpt type name, or the GUID if there is none
	Label    string
	GUID     string // unique partition GUID, lower case
}

// Read returns the used entries of the GPT on diskPath in entry array order.
func Read(diskPath string, blockSize uint64) ([]Entry, error) {
	f, err := os.Open(diskPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", diskPath, err)
	}
	defer f.Close()

	return readEntries(f, blockSize)
}

func readEntries(f *os.File, blockSize uint64) ([]Entry, error) {
	table, err := gpttable.Read(f, int(blockSize), int(blockSize))
	if err != nil {
		return nil, fmt.Errorf("cannot read GPT from %s: %w", f.Name(), err)
	}

	entries := make([]Entry, 0, len(table.Partitions))
	for _, p := range table.Partitions {
		typeGUID := strings.ToUpper(string(p.Type))
		entries = append(entries, Entry{
			Start:    p.Start,
			End:      p.End,
			Size:     p.Size,
			TypeGUID: typeGUID,
			Type:     disk.TypeName(typeGUID),
			Label:    p.Name,
			GUID:     strings.ToLower(p.GUID),
		})
	}
	return entries, nil
}

// checkLayout rejects layouts that cannot be expressed as a GPT.
func checkLayout(layout *disk.Layout) error {
	if layout.BlockSize < minBlockSize {
		return &disk.Error{
			Kind:   disk.InvalidLayout,
			Reason: fmt.Sprintf("block size %d is smaller than %d", layout.BlockSize, minBlockSize),
			Layout: layout.ImageType,
		}
	}

	for idx := range layout.Entries {
		e := &layout.Entries[idx]
		fail := func(format string, args ...interface{}) error {
			return &disk.Error{
				Kind:   disk.InvalidLayout,
				Reason: fmt.Sprintf(format, args...),
				Layout: layout.ImageType,
				Label:  e.Name(),
				Num:    e.Num,
			}
		}

		if num := e.Number(); num < 1 || num > disk.MaxPartitions {
			return fail("partition number %d out of range 1..%d", num, disk.MaxPartitions)
		}
		if e.Blocks == 0 {
			return fail("partition has no blocks")
		}
		if _, ok := disk.TypeGUID(e.Type); !ok {
			return fail("unknown partition type %q", e.Type)
		}
		if n := len(utf16.Encode([]rune(e.Name()))); n > maxLabelLength {
			return fail("label is %d characters long, at most %d fit", n, maxLabelLength)
		}
	}
	return nil
}

// bootPartition places table and returns the first EFI system partition.
func bootPartition(table *disk.Table) (*disk.Placed, *disk.Layout, error) {
	efi := table.FindByType(disk.EFIType)
	if efi == nil {
		return nil, nil, &disk.Error{
			Kind:   disk.InvalidLayout,
			Reason: "Table does not include an EFI partition",
			Layout: table.ImageType,
		}
	}

	layout, err := table.ComputeLayout(table.Geometry())
	if err != nil {
		return nil, nil, err
	}
	if err := checkLayout(layout); err != nil {
		return nil, nil, err
	}

	for idx := range layout.Entries {
		if layout.Entries[idx].Number() == efi.Number() {
			return &layout.Entries[idx], layout, nil
		}
	}
	panic("EFI partition missing from computed layout; this is a programming error")
}
