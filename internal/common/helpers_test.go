package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSizeToUint64(t *testing.T) {
	cases := []struct {
		input   string
		success bool
		output  uint64
	}{
		{"0", true, 0},
		{"123", true, 123},
		{"123B", true, 123},
		{"123b", true, 123},
		{"4K", true, 4 * 1024},
		{"4k", true, 4 * 1024},
		{"4KB", true, 4000},
		{"4KiB", true, 4 * 1024},
		{"4kib", true, 4 * 1024},
		{"2M", true, 2 * 1024 * 1024},
		{"2MB", true, 2 * 1000 * 1000},
		{"2MiB", true, 2 * 1024 * 1024},
		{"2G", true, 2 * 1024 * 1024 * 1024},
		{"2GB", true, 2 * 1000 * 1000 * 1000},
		{"2GiB", true, 2 * 1024 * 1024 * 1024},
		{"1T", true, 1024 * 1024 * 1024 * 1024},
		{"1TB", true, 1000 * 1000 * 1000 * 1000},
		{"", false, 0},
		{"G", false, 0},
		{"5X", false, 0},
		{"5BB", false, 0},
		{"5BIB", false, 0},
		{"5GX", false, 0},
		{"5GIBB", false, 0},
		{"5P", false, 0},
		{" 5G", false, 0},
		{"5 G", false, 0},
		{"1G5", false, 0},
		{"-5", false, 0},
		{"99999999999999999999", false, 0},
		{"20000000T", false, 0},
	}

	for _, c := range cases {
		result, err := DataSizeToUint64(c.input)
		if c.success {
			require.NoError(t, err, c.input)
			assert.EqualValues(t, c.output, result, c.input)
		} else {
			assert.Error(t, err, c.input)
		}
	}
}
