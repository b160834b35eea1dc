package disk

import (
	"fmt"
	"io"
)

const mebibyte = 1024 * 1024

// humanSize formats sizes below 1 MiB in bytes and everything else in whole
// MiB, rounded down.
func humanSize(size uint64) string {
	if size < mebibyte {
		return fmt.Sprintf("%d bytes", size)
	}
	return fmt.Sprintf("%d MB", size/mebibyte)
}

// WriteDebug prints one line per entry in on-disk order, for a quick visual
// check of a layout.
func (t *Table) WriteDebug(w io.Writer) error {
	for idx := range t.Partitions {
		p := &t.Partitions[idx]
		size := humanSize(p.Bytes)

		var err error
		switch {
		case p.Label == nil:
			_, err = fmt.Fprintf(w, "blank - %s\n", size)
		case p.FSBytes != nil:
			_, err = fmt.Fprintf(w, "%s - %s/%s\n", *p.Label, humanSize(*p.FSBytes), size)
		default:
			_, err = fmt.Fprintf(w, "%s - %s\n", *p.Label, size)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
