package disk

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/osbuild/cgpt-layout/internal/common"
)

// Op is the operator of a size adjustment.
type Op int

const (
	Increase Op = iota + 1 // "+"
	Decrease               // "-"
	SetExact               // "="
)

func (op Op) String() string {
	switch op {
	case Increase:
		return "+"
	case Decrease:
		return "-"
	case SetExact:
		return "="
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

func parseOp(c byte) (Op, bool) {
	switch c {
	case '+':
		return Increase, true
	case '-':
		return Decrease, true
	case '=':
		return SetExact, true
	}
	return 0, false
}

// Adjustment resizes the partition with the given label. Operand is the
// size as written by the user, Bytes its value.
type Adjustment struct {
	Label   string
	Op      Op
	Operand string
	Bytes   uint64
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s:%s%s", a.Label, a.Op, a.Operand)
}

// ParseAdjustments parses a whitespace separated list of adjustments of the
// form <label>:<op><size>, e.g. "ROOT-A:=2G STATE:+512MiB". Every token is
// checked before anything is returned.
func ParseAdjustments(s string) ([]Adjustment, error) {
	var adjustments []Adjustment
	for _, token := range strings.Fields(s) {
		label, spec, ok := strings.Cut(token, ":")
		if !ok || spec == "" {
			return nil, &Error{Kind: InvalidAdjustment, Reason: fmt.Sprintf("adjustment %q is incomplete", token), Label: label}
		}

		op, ok := parseOp(spec[0])
		if !ok {
			return nil, &Error{Kind: InvalidAdjustment, Reason: fmt.Sprintf("unknown operator %q", spec[:1]), Label: label}
		}

		operand := spec[1:]
		size, err := common.DataSizeToUint64(operand)
		if err != nil {
			return nil, &Error{Kind: InvalidAdjustment, Reason: fmt.Sprintf("invalid adjustment size %q", operand), Label: label, Err: err}
		}

		adjustments = append(adjustments, Adjustment{
			Label:   label,
			Op:      op,
			Operand: operand,
			Bytes:   size,
		})
	}
	return adjustments, nil
}

// ApplyAdjustments parses s and applies the adjustments in order.
func (t *Table) ApplyAdjustments(s string) error {
	adjustments, err := ParseAdjustments(s)
	if err != nil {
		return err
	}
	for _, a := range adjustments {
		if err := t.Adjust(a); err != nil {
			return err
		}
	}
	return nil
}

// Adjust resizes the partition labeled a.Label. The size has to be a
// multiple of the block size.
//
// A rootfs partition is treated specially: the requested size becomes the
// filesystem size and the partition grows by RootfsHashPadRatio on top of
// it, rounded down to whole blocks, to make room for the verity hash tree.
func (t *Table) Adjust(a Adjustment) error {
	p, err := t.PartitionByLabel(a.Label)
	if err != nil {
		return err
	}

	fail := func(format string, args ...interface{}) error {
		e := newError(InvalidAdjustment, format, args...)
		e.Layout = t.ImageType
		e.Label = a.Label
		e.Num = p.Num
		return e
	}

	blockSize := t.Metadata.BlockSize
	if a.Bytes%blockSize != 0 {
		return fail("adjustment size %d not divisible by block size %d", a.Bytes, blockSize)
	}
	operand := a.Bytes / blockSize

	var blocks uint64
	switch a.Op {
	case Increase:
		if p.Blocks > math.MaxUint64-operand {
			return fail("partition size overflows")
		}
		blocks = p.Blocks + operand
	case Decrease:
		if operand > p.Blocks {
			return fail("cannot shrink partition of %d blocks by %d blocks", p.Blocks, operand)
		}
		blocks = p.Blocks - operand
	case SetExact:
		blocks = operand
	default:
		return fail("unknown operator %s", a.Op)
	}
	if blocks == 0 && !p.IsBlank() {
		return fail("partition would have no blocks")
	}

	bytes, overflow := mulBlocks(blocks, blockSize)
	if overflow {
		return fail("partition size overflows")
	}

	isRootfs := p.Type == RootfsType
	fsBytes := bytes
	fsBlocks := fsBytes / t.Metadata.FSBlockSize
	if isRootfs {
		padded := float64(blocks) * RootfsHashPadRatio
		if padded >= math.MaxUint64 {
			return fail("partition size overflows")
		}
		blocks = uint64(padded)
		if bytes, overflow = mulBlocks(blocks, blockSize); overflow {
			return fail("partition size overflows")
		}
	}

	if !isRootfs && p.FSBytes != nil && *p.FSBytes > bytes {
		return fail("filesystem may not be larger than partition: %d > %d", *p.FSBytes, bytes)
	}

	p.Blocks = blocks
	p.Bytes = bytes
	if isRootfs {
		p.FSBytes = &fsBytes
		p.FSBlocks = &fsBlocks
	}

	logrus.WithFields(logrus.Fields{
		"layout":     t.ImageType,
		"label":      a.Label,
		"adjustment": a.String(),
		"blocks":     p.Blocks,
	}).Debug("adjusted partition")
	return nil
}
