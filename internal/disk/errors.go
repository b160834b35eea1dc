package disk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every error the layout engine reports.
type ErrorKind int

const (
	// ConfigNotFound means the partition config file does not exist.
	ConfigNotFound ErrorKind = iota + 1
	// InvalidLayout covers schema and semantic violations of a layout.
	InvalidLayout
	// PartitionNotFound is returned by lookups by number or label.
	PartitionNotFound
	// InvalidAdjustment is a malformed or inapplicable --adjust_part value.
	InvalidAdjustment
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigNotFound:
		return "ConfigNotFound"
	case InvalidLayout:
		return "InvalidLayout"
	case PartitionNotFound:
		return "PartitionNotFound"
	case InvalidAdjustment:
		return "InvalidAdjustment"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by this package. Besides the kind it
// carries whatever identifies the offending item.
type Error struct {
	Kind   ErrorKind
	Reason string

	Path   string // config file
	Layout string // layout (image type) name
	Label  string // partition label
	Num    *int   // partition number
	Key    string // config key

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)

	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "config "+e.Path)
	}
	if e.Layout != "" {
		ctx = append(ctx, "layout "+e.Layout)
	}
	if e.Num != nil {
		ctx = append(ctx, fmt.Sprintf("partition %d", *e.Num))
	}
	if e.Label != "" {
		ctx = append(ctx, "label "+e.Label)
	}
	if e.Key != "" {
		ctx = append(ctx, "key "+e.Key)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, &disk.Error{Kind: disk.PartitionNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there
// is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
