package disk

import (
	"golang.org/x/exp/slices"
)

// Partition is one entry of a layout. Entries loaded from a config only
// carry what the config specified; Num, Label and FSBlocks are nil when the
// config left them out. Bytes and FSBytes are derived from the block counts
// and kept in sync by the loader and the adjuster.
type Partition struct {
	Type     string   // cgpt type name, or BlankType
	Num      *int     // GPT entry number, 1-based
	Label    *string  // GPT partition name
	Blocks   uint64   // size in units of the table's block size
	FSBlocks *uint64  // filesystem size in units of the filesystem block size
	Features []string // free-form flags, e.g. "expand"
	UUID     string   // unique partition GUID, canonical lower-case form
	Comment  string

	Bytes   uint64  // Blocks * block size
	FSBytes *uint64 // FSBlocks * filesystem block size
}

// IsBlank reports whether the entry only reserves space.
func (p *Partition) IsBlank() bool {
	return p.Type == BlankType
}

// HasFeature reports whether the partition lists the given feature flag.
func (p *Partition) HasFeature(feature string) bool {
	return slices.Contains(p.Features, feature)
}

// Number returns the partition number, or -1 if there is none.
func (p *Partition) Number() int {
	if p.Num == nil {
		return -1
	}
	return *p.Num
}

// Name returns the partition label, or UntitledLabel if there is none.
func (p *Partition) Name() string {
	if p.Label == nil {
		return UntitledLabel
	}
	return *p.Label
}

// FilesystemSize returns the filesystem size in bytes, which defaults to the
// partition size.
func (p *Partition) FilesystemSize() uint64 {
	if p.FSBytes == nil {
		return p.Bytes
	}
	return *p.FSBytes
}

// Clone returns a deep copy of the partition.
func (p *Partition) Clone() *Partition {
	if p == nil {
		return nil
	}

	clone := *p
	if p.Num != nil {
		num := *p.Num
		clone.Num = &num
	}
	if p.Label != nil {
		label := *p.Label
		clone.Label = &label
	}
	if p.FSBlocks != nil {
		fsBlocks := *p.FSBlocks
		clone.FSBlocks = &fsBlocks
	}
	if p.FSBytes != nil {
		fsBytes := *p.FSBytes
		clone.FSBytes = &fsBytes
	}
	clone.Features = slices.Clone(p.Features)
	return &clone
}

// merge copies every field the override specifies onto p. Fields the
// override leaves out keep their current value.
func (p *Partition) merge(override *Partition) {
	o := override.Clone()

	p.Type = o.Type
	p.Blocks = o.Blocks
	p.Bytes = o.Bytes
	p.UUID = o.UUID
	if o.Num != nil {
		p.Num = o.Num
	}
	if o.Label != nil {
		p.Label = o.Label
	}
	if o.FSBlocks != nil {
		p.FSBlocks = o.FSBlocks
		p.FSBytes = o.FSBytes
	}
	if o.Features != nil {
		p.Features = o.Features
	}
	if o.Comment != "" {
		p.Comment = o.Comment
	}
}
