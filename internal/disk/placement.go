package disk

import (
	"fmt"
	"math"
)

// Geometry describes the disk a table is placed on.
type Geometry struct {
	BlockSize       uint64 // bytes per block (sector)
	ReservedSectors uint64 // sectors kept free at each end of the disk
}

// Geometry returns the default geometry for the table's block size.
func (t *Table) Geometry() Geometry {
	return Geometry{
		BlockSize:       t.Metadata.BlockSize,
		ReservedSectors: DefaultReservedSectors,
	}
}

// Placed is a partition together with its position on disk.
type Placed struct {
	Partition
	StartSector uint64
}

// EndSector returns the last sector of the partition.
func (p *Placed) EndSector() uint64 {
	return p.StartSector + p.Blocks - 1
}

// Layout is a table placed on a disk.
type Layout struct {
	Geometry
	ImageType  string
	DiskBlocks uint64   // total size of the disk in blocks
	Entries    []Placed // non-blank partitions in table order
}

// DiskBytes returns the total size of the disk in bytes.
func (l *Layout) DiskBytes() uint64 {
	return l.DiskBlocks * l.BlockSize
}

// ComputeLayout places the partitions back to back in table order,
// starting after the reserved sectors. Blank entries take up space but are
// not part of the result. The reserved sectors are added again at the end
// for the backup GPT.
func (t *Table) ComputeLayout(geo Geometry) (*Layout, error) {
	if geo.BlockSize != t.Metadata.BlockSize {
		return nil, &Error{
			Kind:   InvalidLayout,
			Reason: fmt.Sprintf("geometry block size %d does not match table block size %d", geo.BlockSize, t.Metadata.BlockSize),
			Layout: t.ImageType,
		}
	}

	layout := &Layout{
		Geometry:  geo,
		ImageType: t.ImageType,
	}

	cursor := geo.ReservedSectors
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		if !p.IsBlank() {
			layout.Entries = append(layout.Entries, Placed{
				Partition:   *p.Clone(),
				StartSector: cursor,
			})
		}
		if p.Blocks > math.MaxUint64-cursor {
			return nil, &Error{Kind: InvalidLayout, Reason: "disk size overflows", Layout: t.ImageType, Label: p.Name()}
		}
		cursor += p.Blocks
	}
	if geo.ReservedSectors > math.MaxUint64-cursor {
		return nil, &Error{Kind: InvalidLayout, Reason: "disk size overflows", Layout: t.ImageType}
	}
	layout.DiskBlocks = cursor + geo.ReservedSectors

	return layout, nil
}
