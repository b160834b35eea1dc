package disk

import (
	"github.com/osbuild/cgpt-layout/internal/common"
)

// Table is the partition list of one image type, resolved from a Config.
// It owns its partitions; changing a Table never affects the Config it came
// from.
type Table struct {
	ImageType  string
	Metadata   Metadata
	Partitions []Partition
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}

	clone := &Table{
		ImageType:  t.ImageType,
		Metadata:   t.Metadata,
		Partitions: make([]Partition, len(t.Partitions)),
	}
	for idx := range t.Partitions {
		clone.Partitions[idx] = *t.Partitions[idx].Clone()
	}
	return clone
}

// BlockSize returns the partition table block size in bytes.
func (t *Table) BlockSize() uint64 {
	return t.Metadata.BlockSize
}

// FilesystemBlockSize returns the filesystem block size in bytes.
func (t *Table) FilesystemBlockSize() uint64 {
	return t.Metadata.FSBlockSize
}

// PartitionByNum returns the non-blank partition with the given number.
func (t *Table) PartitionByNum(num int) (*Partition, error) {
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		if p.IsBlank() {
			continue
		}
		if p.Num != nil && *p.Num == num {
			return p, nil
		}
	}
	return nil, &Error{Kind: PartitionNotFound, Reason: "partition not found", Layout: t.ImageType, Num: common.ToPtr(num)}
}

// PartitionByLabel returns the first partition with the given label.
func (t *Table) PartitionByLabel(label string) (*Partition, error) {
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		if p.Label == nil {
			continue
		}
		if *p.Label == label {
			return p, nil
		}
	}
	return nil, &Error{Kind: PartitionNotFound, Reason: "partition not found", Layout: t.ImageType, Label: label}
}

// Size returns the size in bytes of partition num.
func (t *Table) Size(num int) (uint64, error) {
	p, err := t.PartitionByNum(num)
	if err != nil {
		return 0, err
	}
	return p.Bytes, nil
}

// FilesystemSize returns the filesystem size in bytes of partition num.
func (t *Table) FilesystemSize(num int) (uint64, error) {
	p, err := t.PartitionByNum(num)
	if err != nil {
		return 0, err
	}
	return p.FilesystemSize(), nil
}

// Label returns the label of partition num.
func (t *Table) Label(num int) (string, error) {
	p, err := t.PartitionByNum(num)
	if err != nil {
		return "", err
	}
	return p.Name(), nil
}

// Num returns the number of the partition labeled label, or -1 if that
// partition has no number.
func (t *Table) Num(label string) (int, error) {
	p, err := t.PartitionByLabel(label)
	if err != nil {
		return 0, err
	}
	return p.Number(), nil
}

// UUID returns the unique GUID of the partition labeled label.
func (t *Table) UUID(label string) (string, error) {
	p, err := t.PartitionByLabel(label)
	if err != nil {
		return "", err
	}
	return p.UUID, nil
}

// FindByType returns the first non-blank partition of the given type, or nil.
func (t *Table) FindByType(partType string) *Partition {
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		if !p.IsBlank() && p.Type == partType {
			return p
		}
	}
	return nil
}

// validate checks the invariants every resolved or adjusted table has to
// satisfy.
func (t *Table) validate() *Error {
	if err := checkUniqueNums(t.Partitions); err != nil {
		err.Layout = t.ImageType
		return err
	}
	for idx := range t.Partitions {
		if err := checkFilesystemFits(&t.Partitions[idx]); err != nil {
			err.Layout = t.ImageType
			return err
		}
	}
	return nil
}
