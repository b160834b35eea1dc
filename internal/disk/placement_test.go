package disk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osbuild/cgpt-layout/internal/disk"
)

func TestComputeLayout(t *testing.T) {
	table := mustResolve(t, loadTestConfig(t, "simple.json"), "base")

	layout, err := table.ComputeLayout(table.Geometry())
	require.NoError(t, err)

	require.Len(t, layout.Entries, 2)
	assert.Equal(t, "EFI", layout.Entries[0].Name())
	assert.Equal(t, uint64(disk.DefaultReservedSectors), layout.Entries[0].StartSector)
	assert.Equal(t, "ROOT-A", layout.Entries[1].Name())
	assert.Equal(t, uint64(disk.DefaultReservedSectors+1), layout.Entries[1].StartSector)
	assert.Equal(t, uint64(disk.DefaultReservedSectors+100), layout.Entries[1].EndSector())
	assert.Equal(t, uint64(disk.DefaultReservedSectors*2+101), layout.DiskBlocks)
	assert.Equal(t, layout.DiskBlocks*512, layout.DiskBytes())
}

func TestComputeLayoutTotals(t *testing.T) {
	config := loadTestConfig(t, "chromeos.json")

	for _, name := range config.LayoutNames() {
		table := mustResolve(t, config, name)
		require.NoError(t, table.ApplyAdjustments("ROOT-A:=1G STATE:+16M"))

		layout, err := table.ComputeLayout(table.Geometry())
		require.NoError(t, err, name)

		var sum uint64
		for _, p := range table.Partitions {
			sum += p.Blocks
		}
		assert.Equal(t, sum+2*disk.DefaultReservedSectors, layout.DiskBlocks, name)

		// entries never overlap and stay clear of both GPTs
		next := uint64(disk.DefaultReservedSectors)
		for _, e := range layout.Entries {
			assert.GreaterOrEqual(t, e.StartSector, next, "%s: %s", name, e.Name())
			next = e.EndSector() + 1
		}
		assert.LessOrEqual(t, next, layout.DiskBlocks-disk.DefaultReservedSectors, name)
	}
}

func TestComputeLayoutSkipsBlanks(t *testing.T) {
	table := mustResolve(t, loadTestConfig(t, "chromeos.json"), "base")

	layout, err := table.ComputeLayout(table.Geometry())
	require.NoError(t, err)

	// 14 entries, two of them blank
	require.Len(t, layout.Entries, 12)
	for _, e := range layout.Entries {
		assert.False(t, e.IsBlank())
	}

	kernA := layout.Entries[5]
	assert.Equal(t, "KERN-A", kernA.Name())
	assert.Equal(t, uint64(64+16384+4+4030), kernA.StartSector)
}

func TestComputeLayoutCustomGeometry(t *testing.T) {
	table := mustResolve(t, loadTestConfig(t, "simple.json"), "base")

	layout, err := table.ComputeLayout(disk.Geometry{BlockSize: 512, ReservedSectors: 2048})
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), layout.Entries[0].StartSector)
	assert.Equal(t, uint64(2*2048+101), layout.DiskBlocks)

	_, err = table.ComputeLayout(disk.Geometry{BlockSize: 4096, ReservedSectors: 64})
	require.Error(t, err)
	assert.Equal(t, disk.InvalidLayout, disk.KindOf(err))
}
