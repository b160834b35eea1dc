package disk_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osbuild/cgpt-layout/internal/common"
	"github.com/osbuild/cgpt-layout/internal/disk"
)

func TestTableAccessors(t *testing.T) {
	config := loadTestConfig(t, "chromeos.json")
	table := mustResolve(t, config, "base")

	size, err := table.Size(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(4194304*512), size)
	assert.Equal(t, config.Layouts["base"][12].Bytes, size)

	fsSize, err := table.FilesystemSize(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024*1024*1024), fsSize)

	// no fs_blocks: the filesystem fills the partition
	fsSize, err = table.FilesystemSize(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(16*1024*1024), fsSize)

	label, err := table.Label(12)
	require.NoError(t, err)
	assert.Equal(t, "EFI-SYSTEM", label)

	num, err := table.Num("ROOT-A")
	require.NoError(t, err)
	assert.Equal(t, 3, num)

	// the first of several partitions with the same label wins
	num, err = table.Num("reserved")
	require.NoError(t, err)
	assert.Equal(t, 9, num)

	id, err := table.UUID("EFI-SYSTEM")
	require.NoError(t, err)
	assert.Equal(t, "c94f1b0a-8d2f-4b7e-9c3d-7a6e5f4b3c2d", id)

	assert.Equal(t, uint64(512), table.BlockSize())
	assert.Equal(t, uint64(4096), table.FilesystemBlockSize())
	assert.Equal(t, "EFI-SYSTEM", table.FindByType(disk.EFIType).Name())
	assert.Nil(t, table.FindByType("minios"))
}

func TestTableAccessorsSizeMatchesConfig(t *testing.T) {
	config := loadTestConfig(t, "chromeos.json")
	table := mustResolve(t, config, "base")

	for _, p := range config.Layouts["base"] {
		if p.IsBlank() {
			continue
		}
		size, err := table.Size(*p.Num)
		require.NoError(t, err)
		assert.Equal(t, p.Bytes, size, p.Name())
	}
}

func TestTableDefaults(t *testing.T) {
	table := &disk.Table{
		ImageType: "base",
		Metadata:  disk.Metadata{BlockSize: 512, FSBlockSize: 4096},
		Partitions: []disk.Partition{
			{Type: "blank", Label: common.ToPtr("gap"), Blocks: 8, Bytes: 4096},
			{Type: "data", Num: common.ToPtr(1), Blocks: 8, Bytes: 4096},
		},
	}

	label, err := table.Label(1)
	require.NoError(t, err)
	assert.Equal(t, disk.UntitledLabel, label)

	num, err := table.Num("gap")
	require.NoError(t, err)
	assert.Equal(t, -1, num)
}

func TestTableNotFound(t *testing.T) {
	table := mustResolve(t, loadTestConfig(t, "chromeos.json"), "base")

	_, err := table.PartitionByNum(99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &disk.Error{Kind: disk.PartitionNotFound}))
	assert.Equal(t, "partition not found (layout base, partition 99)", err.Error())

	_, err = table.Size(42)
	assert.Equal(t, disk.PartitionNotFound, disk.KindOf(err))
	_, err = table.FilesystemSize(42)
	assert.Equal(t, disk.PartitionNotFound, disk.KindOf(err))
	_, err = table.Label(42)
	assert.Equal(t, disk.PartitionNotFound, disk.KindOf(err))

	_, err = table.Num("NOPE")
	assert.Equal(t, disk.PartitionNotFound, disk.KindOf(err))
	_, err = table.UUID("NOPE")
	assert.Equal(t, disk.PartitionNotFound, disk.KindOf(err))
	assert.Contains(t, err.Error(), "label NOPE")
}

func TestTableClone(t *testing.T) {
	table := mustResolve(t, loadTestConfig(t, "chromeos.json"), "base")

	clone := table.Clone()
	assert.Empty(t, cmp.Diff(table, clone))

	*clone.Partitions[0].Label = "CHANGED"
	*clone.Partitions[8].FSBlocks = 1
	clone.Partitions[13].Features[0] = "changed"
	assert.Equal(t, "RWFW", table.Partitions[0].Name())
	assert.Equal(t, uint64(4096), *table.Partitions[8].FSBlocks)
	assert.Equal(t, []string{"expand"}, table.Partitions[13].Features)

	var nilTable *disk.Table
	assert.Nil(t, nilTable.Clone())
}
