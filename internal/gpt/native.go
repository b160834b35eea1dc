package gpt

import (
	"fmt"
	"math"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	gpttable "github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/osbuild/cgpt-layout/internal/disk"
)

// NativeWriter writes the partition table itself.
type NativeWriter struct{}

func NewNativeWriter() *NativeWriter {
	return &NativeWriter{}
}

func (w *NativeWriter) WriteGPT(layout *disk.Layout, diskPath string) error {
	if err := checkLayout(layout); err != nil {
		return err
	}
	table, err := partitionTable(layout)
	if err != nil {
		return err
	}

	if err := prepareTarget(diskPath, layout.DiskBytes(), layout.BlockSize); err != nil {
		return err
	}

	d, err := diskfs.Open(diskPath, diskfs.WithOpenMode(diskfs.ReadWriteExclusive))
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", diskPath, err)
	}
	defer d.File.Close()

	if err := d.Partition(table); err != nil {
		return fmt.Errorf("cannot write GPT to %s: %w", diskPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"disk":       diskPath,
		"layout":     layout.ImageType,
		"partitions": len(layout.Entries),
		"size":       d.Size,
	}).Debug("wrote GPT")
	return nil
}

// partitionTable converts layout into a GPT. Partition n goes into entry
// n-1 of the entry array; entries no partition uses stay empty.
func partitionTable(layout *disk.Layout) (*gpttable.Table, error) {
	slots := 0
	for idx := range layout.Entries {
		if num := layout.Entries[idx].Number(); num > slots {
			slots = num
		}
	}

	partitions := make([]*gpttable.Partition, slots)
	for idx := range partitions {
		partitions[idx] = &gpttable.Partition{Type: gpttable.Unused}
	}

	for idx := range layout.Entries {
		e := &layout.Entries[idx]
		typeGUID, _ := disk.TypeGUID(e.Type)
		slot := e.Number() - 1
		if partitions[slot].Type != gpttable.Unused {
			return nil, &disk.Error{Kind: disk.InvalidLayout, Reason: "duplicate partition number", Layout: layout.ImageType, Num: e.Num}
		}
		partitions[slot] = &gpttable.Partition{
			Start: e.StartSector,
			End:   e.EndSector(),
			Size:  e.Bytes,
			Type:  gpttable.Type(typeGUID),
			Name:  e.Name(),
			GUID:  e.UUID,
		}
	}

	return &gpttable.Table{
		LogicalSectorSize:  int(layout.BlockSize),
		PhysicalSectorSize: int(layout.BlockSize),
		ProtectiveMBR:      true,
		Partitions:         partitions,
	}, nil
}

func (w *NativeWriter) WriteMbrBoot(table *disk.Table, diskPath, bootCodePath string) error {
	esp, layout, err := bootPartition(table)
	if err != nil {
		return err
	}

	bootCode, err := readBootCode(bootCodePath)
	if err != nil {
		return err
	}

	d, err := diskfs.Open(diskPath, diskfs.WithOpenMode(diskfs.ReadWriteExclusive))
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", diskPath, err)
	}
	defer d.File.Close()

	// The table may have been resolved with generated UUIDs that differ from
	// the ones on disk, so the boot GUID comes from the disk.
	entries, err := readEntries(d.File, layout.BlockSize)
	if err != nil {
		return err
	}
	var bootGUID string
	for _, e := range entries {
		if e.Start == esp.StartSector && e.TypeGUID == disk.EFIGUID {
			bootGUID = e.GUID
			break
		}
	}
	if bootGUID == "" {
		return fmt.Errorf("EFI partition %d not found at sector %d of %s", esp.Number(), esp.StartSector, diskPath)
	}

	head, err := bootSectorHead(bootCode, bootGUID)
	if err != nil {
		return err
	}
	if _, err := d.File.WriteAt(head, 0); err != nil {
		return fmt.Errorf("cannot write boot code to %s: %w", diskPath, err)
	}

	pmbr := protectiveMBR(uint64(d.Size), layout.BlockSize)
	if err := pmbr.Write(d.File, d.Size); err != nil {
		return fmt.Errorf("cannot write protective MBR to %s: %w", diskPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"disk":      diskPath,
		"partition": esp.Number(),
		"guid":      bootGUID,
	}).Debug("wrote protective MBR")
	return nil
}

func readBootCode(path string) ([]byte, error) {
	bootCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read MBR boot code: %w", err)
	}
	if len(bootCode) == 0 {
		return nil, fmt.Errorf("MBR boot code %s is empty", path)
	}
	if len(bootCode) > bootCodeSize {
		logrus.WithFields(logrus.Fields{
			"bootcode": path,
			"size":     len(bootCode),
		}).Debugf("using the first %d bytes of the MBR boot code", bootCodeSize)
		bootCode = bootCode[:bootCodeSize]
	}
	return bootCode, nil
}

// bootSectorHead returns the first 440 bytes of the protective MBR: the
// boot code padded to 424 bytes, followed by the GUID of the partition to
// boot in GPT byte order.
func bootSectorHead(bootCode []byte, guid string) ([]byte, error) {
	id, err := uuid.Parse(guid)
	if err != nil {
		return nil, fmt.Errorf("invalid boot partition GUID %q: %w", guid, err)
	}

	head := make([]byte, bootCodeSize+16)
	copy(head, bootCode)
	copy(head[bootCodeSize:], mixedEndian(id))
	return head, nil
}

// mixedEndian encodes a GUID the way GPT stores it: the first three fields
// little-endian, the rest as is.
func mixedEndian(id uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	b[0], b[1], b[2], b[3] = id[3], id[2], id[1], id[0]
	b[4], b[5] = id[5], id[4]
	b[6], b[7] = id[7], id[6]
	return b
}

// protectiveMBR returns an MBR with a single 0xEE entry spanning the disk
// from LBA 1, as far as 32 bits reach.
func protectiveMBR(diskSize, blockSize uint64) *mbr.Table {
	sectors := diskSize/blockSize - 1
	if sectors > math.MaxUint32 {
		sectors = math.MaxUint32
	}
	return &mbr.Table{
		LogicalSectorSize:  int(blockSize),
		PhysicalSectorSize: int(blockSize),
		Partitions: []*mbr.Partition{
			{
				Type:  mbr.GPTProtective,
				Start: 1,
				Size:  uint32(sectors),
			},
		},
	}
}
