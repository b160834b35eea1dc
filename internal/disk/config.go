package disk

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/exp/slices"

	"github.com/osbuild/cgpt-layout/internal/common"
)

// Metadata holds the unit sizes shared by every layout of a config.
type Metadata struct {
	BlockSize   uint64
	FSBlockSize uint64
}

// Config is a loaded and validated partition config. It is never modified
// after Load; Resolve hands out deep copies.
type Config struct {
	Path     string
	Metadata Metadata
	Layouts  map[string][]Partition
}

// BlockSize returns the partition table block size in bytes.
func (c *Config) BlockSize() uint64 {
	return c.Metadata.BlockSize
}

// FilesystemBlockSize returns the filesystem block size in bytes.
func (c *Config) FilesystemBlockSize() uint64 {
	return c.Metadata.FSBlockSize
}

// LayoutNames returns the names of all layouts in lexical order.
func (c *Config) LayoutNames() []string {
	return sortedKeys(c.Layouts)
}

// count is a non-negative integer that may be written either as a JSON
// number or as a decimal string.
type count uint64

func (c *count) UnmarshalJSON(data []byte) error {
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid count %s: %w", string(data), err)
	}
	*c = count(n)
	return nil
}

type configFile struct {
	Metadata struct {
		BlockSize   count `json:"block_size"`
		FSBlockSize count `json:"fs_block_size"`
	} `json:"metadata"`
	Layouts map[string][]partitionFile `json:"layouts"`
}

type partitionFile struct {
	Comment  json.RawMessage `json:"_comment"`
	Type     string          `json:"type"`
	Num      *int            `json:"num"`
	Label    *string         `json:"label"`
	Blocks   count           `json:"blocks"`
	FSBlocks *count          `json:"fs_blocks"`
	Features []string        `json:"features"`
	UUID     *string         `json:"uuid"`
}

// Load reads and validates the partition config at path. Partitions without
// a uuid get a fresh random one.
func Load(path string) (*Config, error) {
	return LoadWithRand(path, rand.Reader)
}

// LoadWithRand is Load with the source of randomness for generated UUIDs
// supplied by the caller.
func LoadWithRand(path string, rng io.Reader) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Kind: ConfigNotFound, Reason: "partition config was not found", Path: path}
	} else if err != nil {
		return nil, fmt.Errorf("cannot read partition config %s: %w", path, err)
	}

	config, err := parseConfig(data, rng)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return nil, err
	}
	config.Path = path

	logrus.WithFields(logrus.Fields{
		"config":  path,
		"layouts": len(config.Layouts),
	}).Debug("loaded partition config")
	return config, nil
}

func parseConfig(data []byte, rng io.Reader) (*Config, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Kind: InvalidLayout, Reason: "malformed partition config", Err: err}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &Error{Kind: InvalidLayout, Reason: "malformed partition config", Err: err}
	}

	md := Metadata{
		BlockSize:   uint64(file.Metadata.BlockSize),
		FSBlockSize: uint64(file.Metadata.FSBlockSize),
	}
	if md.BlockSize == 0 {
		return nil, &Error{Kind: InvalidLayout, Reason: "block size must be positive", Key: "metadata.block_size"}
	}
	if md.FSBlockSize == 0 {
		return nil, &Error{Kind: InvalidLayout, Reason: "filesystem block size must be positive", Key: "metadata.fs_block_size"}
	}
	if _, ok := file.Layouts[BaseLayout]; !ok {
		return nil, &Error{Kind: InvalidLayout, Reason: "missing base layout", Key: "layouts." + BaseLayout}
	}

	config := &Config{
		Metadata: md,
		Layouts:  make(map[string][]Partition, len(file.Layouts)),
	}

	for _, name := range sortedKeys(file.Layouts) {
		entries := file.Layouts[name]
		parts := make([]Partition, 0, len(entries))
		for _, entry := range entries {
			p, err := entry.partition(name, md, rng)
			if err != nil {
				return nil, err
			}
			parts = append(parts, *p)
		}
		if err := checkUniqueNums(parts); err != nil {
			err.Layout = name
			return nil, err
		}
		config.Layouts[name] = parts
	}

	return config, nil
}

func (pf *partitionFile) partition(layout string, md Metadata, rng io.Reader) (*Partition, error) {
	p := &Partition{
		Type:     pf.Type,
		Num:      pf.Num,
		Label:    pf.Label,
		Blocks:   uint64(pf.Blocks),
		Features: pf.Features,
	}

	if len(pf.Comment) > 0 {
		var comment string
		if json.Unmarshal(pf.Comment, &comment) == nil {
			p.Comment = comment
		}
	}

	if !p.IsBlank() {
		if p.Num == nil {
			return nil, &Error{Kind: InvalidLayout, Reason: `missing "num"`, Layout: layout, Key: "num"}
		}
		if p.Label == nil {
			return nil, &Error{Kind: InvalidLayout, Reason: `missing "label"`, Layout: layout, Num: p.Num, Key: "label"}
		}
	}

	var overflow bool
	if p.Bytes, overflow = mulBlocks(p.Blocks, md.BlockSize); overflow {
		return nil, &Error{Kind: InvalidLayout, Reason: "partition size overflows", Layout: layout, Num: p.Num, Key: "blocks"}
	}

	if pf.FSBlocks != nil {
		fsBlocks := uint64(*pf.FSBlocks)
		fsBytes, overflow := mulBlocks(fsBlocks, md.FSBlockSize)
		if overflow {
			return nil, &Error{Kind: InvalidLayout, Reason: "filesystem size overflows", Layout: layout, Num: p.Num, Key: "fs_blocks"}
		}
		p.FSBlocks = &fsBlocks
		p.FSBytes = &fsBytes
		if err := checkFilesystemFits(p); err != nil {
			err.Layout = layout
			return nil, err
		}
	}

	if pf.UUID != nil {
		id, err := uuid.Parse(*pf.UUID)
		if err != nil {
			return nil, &Error{Kind: InvalidLayout, Reason: fmt.Sprintf("invalid uuid %q", *pf.UUID), Layout: layout, Num: p.Num, Key: "uuid", Err: err}
		}
		p.UUID = id.String()
	} else {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("cannot generate partition uuid: %w", err)
		}
		p.UUID = id.String()
	}

	return p, nil
}

// validateSchema checks the decoded document against configSchema and turns
// the first violation into an InvalidLayout error naming the key.
func validateSchema(raw interface{}) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewGoLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &Error{Kind: InvalidLayout, Reason: "cannot validate partition config", Err: err}
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	first := result.Errors()[0]
	key := first.Field()
	if property, ok := first.Details()["property"].(string); ok {
		switch first.Type() {
		case "additional_property_not_allowed", "required":
			if key == "(root)" {
				key = property
			} else {
				key = key + "." + property
			}
		}
	}

	return &Error{
		Kind:   InvalidLayout,
		Reason: "invalid partition config: " + strings.Join(msgs, "; "),
		Key:    key,
	}
}

// checkUniqueNums requires every non-blank partition number to be unique.
func checkUniqueNums(parts []Partition) *Error {
	seen := make(map[int]bool, len(parts))
	for i := range parts {
		p := &parts[i]
		if p.IsBlank() || p.Num == nil {
			continue
		}
		if seen[*p.Num] {
			return &Error{Kind: InvalidLayout, Reason: "duplicate partition number", Num: common.ToPtr(*p.Num), Label: p.Name()}
		}
		seen[*p.Num] = true
	}
	return nil
}

func checkFilesystemFits(p *Partition) *Error {
	if p.FSBytes == nil || *p.FSBytes <= p.Bytes {
		return nil
	}
	return &Error{
		Kind:   InvalidLayout,
		Reason: fmt.Sprintf("filesystem may not be larger than partition: %d > %d", *p.FSBytes, p.Bytes),
		Label:  p.Name(),
		Num:    p.Num,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func mulBlocks(blocks, size uint64) (uint64, bool) {
	hi, lo := bits.Mul64(blocks, size)
	return lo, hi != 0
}
