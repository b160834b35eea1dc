package disk

import (
	"github.com/sirupsen/logrus"
)

// Resolve returns the partition table for imageType: a copy of the base
// layout with the entries of the imageType layout merged onto the base
// entries of the same number. Blank entries never take part in the merge and
// an overlay cannot add, remove or reorder partitions.
func (c *Config) Resolve(imageType string) (*Table, error) {
	base, ok := c.Layouts[BaseLayout]
	if !ok {
		return nil, &Error{Kind: InvalidLayout, Reason: "missing base layout", Path: c.Path, Key: "layouts." + BaseLayout}
	}

	table := &Table{
		ImageType:  imageType,
		Metadata:   c.Metadata,
		Partitions: make([]Partition, len(base)),
	}
	for idx := range base {
		table.Partitions[idx] = *base[idx].Clone()
	}

	if imageType != BaseLayout {
		overlay, ok := c.Layouts[imageType]
		if !ok {
			return nil, &Error{Kind: InvalidLayout, Reason: "unknown image type", Path: c.Path, Layout: imageType}
		}
		for idx := range overlay {
			table.overlay(&overlay[idx])
		}
	}

	if err := table.validate(); err != nil {
		err.Path = c.Path
		return nil, err
	}
	return table, nil
}

func (t *Table) overlay(override *Partition) {
	if override.IsBlank() {
		return
	}

	matched := false
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		if p.IsBlank() {
			continue
		}
		if p.Number() == override.Number() {
			p.merge(override)
			matched = true
		}
	}

	if !matched {
		logrus.WithFields(logrus.Fields{
			"layout":    t.ImageType,
			"partition": override.Number(),
			"label":     override.Name(),
		}).Warn("overlay entry has no matching base partition, ignoring it")
	}
}
