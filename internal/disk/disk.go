// Package disk computes ChromeOS style partition layouts.
//
// A Config holds several named layouts loaded from a JSON file. Resolving an
// image type overlays its layout on top of the "base" layout and yields a
// Table, which can be adjusted and placed on disk as a Layout. The gpt
// package turns a Layout into an actual partition table.
package disk

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultReservedSectors is the number of sectors kept free at the
	// start of the disk for the protective MBR, the primary GPT header and
	// its entry array, and the same again at the end for the backup GPT.
	DefaultReservedSectors = 64

	// MaxPartitions is the number of entries in a GPT entry array.
	MaxPartitions = 128

	// BaseLayout names the layout every image type is overlaid on.
	BaseLayout = "base"

	// BlankType marks an entry that consumes space without a partition.
	BlankType = "blank"

	// UntitledLabel is reported for partitions without a label.
	UntitledLabel = "UNTITLED"

	// RootfsType partitions get a hash pad when they are adjusted.
	RootfsType = "rootfs"

	// EFIType is the partition type the protective MBR boots.
	EFIType = "efi"
)

// RootfsHashPadRatio is the factor by which an adjusted rootfs partition is
// larger than its filesystem, leaving room for the verity hash tree.
const RootfsHashPadRatio = 1.15

// Partition type GUIDs understood by cgpt, by the names cgpt accepts.
const (
	UnusedGUID    = "00000000-0000-0000-0000-000000000000"
	KernelGUID    = "FE3A2A5D-4F32-41A7-B725-ACCC3285A309"
	RootfsGUID    = "3CB8E202-3B7E-47DD-8A3C-7FF2A13CFCEC"
	FirmwareGUID  = "CAB6E88E-ABF3-4102-A07A-D4BB9BE3C1D3"
	ReservedGUID  = "2E0A753D-9E48-43B0-8337-B15192CB1B5E"
	DataGUID      = "EBD0A0A2-B9E5-4433-87C0-68B6B72699C7"
	EFIGUID       = "C12A7328-F81F-11D2-BA4B-00A0C93EC93B"
	MiniOSGUID    = "09845860-705F-4BB5-B16C-8A8A099CAF52"
	HibernateGUID = "3F0F8318-F146-4E6B-8222-C28C8F02E0D5"
	BIOSBootGUID  = "21686148-6449-6E6F-744E-656564454649"
)

var typeGUIDs = map[string]string{
	"unused":    UnusedGUID,
	"kernel":    KernelGUID,
	"rootfs":    RootfsGUID,
	"firmware":  FirmwareGUID,
	"reserved":  ReservedGUID,
	"data":      DataGUID,
	"efi":       EFIGUID,
	"minios":    MiniOSGUID,
	"hibernate": HibernateGUID,
	"bios_boot": BIOSBootGUID,
}

// TypeGUID returns the GPT partition type GUID for a cgpt type name. A type
// that already is a GUID is returned in upper case.
func TypeGUID(partType string) (string, bool) {
	if guid, ok := typeGUIDs[partType]; ok {
		return guid, true
	}
	if id, err := uuid.Parse(partType); err == nil {
		return strings.ToUpper(id.String()), true
	}
	return "", false
}

// TypeName is the inverse of TypeGUID. GUIDs without a cgpt name are
// returned unchanged.
func TypeName(guid string) string {
	for name, g := range typeGUIDs {
		if strings.EqualFold(g, guid) {
			return name
		}
	}
	return guid
}
