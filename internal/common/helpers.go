package common

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeRegex = regexp.MustCompile(`^([[:digit:]]+)([[:alpha:]]*)$`)

// Powers selected by the size letter of a data size suffix.
var sizePowers = map[byte]int{
	'B': 0,
	'K': 1,
	'M': 2,
	'G': 3,
	'T': 4,
}

// Bases selected by whatever follows the size letter.
var sizeBases = map[string]uint64{
	"":   1024,
	"B":  1000,
	"IB": 1024,
}

// DataSizeToUint64 converts a size specified as a string to an uint64 number
// of bytes. The number may be followed by a size letter (B, K, M, G, T) and,
// for everything but B, by "B" for powers of 1000 or "iB" for powers of 1024.
// A bare size letter means powers of 1024. Letters are case-insensitive.
//
//	"512"   -> 512
//	"4K"    -> 4096
//	"2G"    -> 2 * 1024^3
//	"2GB"   -> 2 * 1000^3
//	"2GiB"  -> 2 * 1024^3
func DataSizeToUint64(size string) (uint64, error) {
	match := sizeRegex.FindStringSubmatch(size)
	if match == nil {
		return 0, fmt.Errorf("invalid size %q", size)
	}

	number, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", size, err)
	}

	suffix := strings.ToUpper(match[2])
	if suffix == "" {
		return number, nil
	}

	power, ok := sizePowers[suffix[0]]
	if !ok {
		return 0, fmt.Errorf("unknown size type %s", match[2])
	}
	if power == 0 && len(suffix) > 1 {
		return 0, fmt.Errorf("unknown size type %s", match[2])
	}
	base, ok := sizeBases[suffix[1:]]
	if !ok {
		return 0, fmt.Errorf("unknown size type %s", match[2])
	}

	for i := 0; i < power; i++ {
		if number > math.MaxUint64/base {
			return 0, fmt.Errorf("size %q overflows", size)
		}
		number *= base
	}

	return number, nil
}
