package gpt_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osbuild/cgpt-layout/internal/gpt"
)

// a generated version 4 UUID
const uuidPattern = "????????-????-4???-????-????????????"

type execRecorder struct {
	calls [][]string
	fail  string
}

func (r *execRecorder) command(name string, arg ...string) *exec.Cmd {
	r.calls = append(r.calls, append([]string{name}, arg...))
	if len(arg) > 0 && arg[0] == r.fail {
		return exec.Command("/usr/bin/false")
	}
	return exec.Command("/usr/bin/true")
}

func assertCalls(t *testing.T, expected, actual [][]string) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for idx := range expected {
		require.Len(t, actual[idx], len(expected[idx]), "call %d: %v", idx, actual[idx])
		for arg := range expected[idx] {
			g := glob.MustCompile(expected[idx][arg])
			assert.True(t, g.Match(actual[idx][arg]), "call %d: %q does not match %q", idx, actual[idx][arg], expected[idx][arg])
		}
	}
}

func TestCgptWriteGPT(t *testing.T) {
	recorder := &execRecorder{}
	defer gpt.MockExecCommand(recorder.command)()

	table := loadTable(t, testConfig, 0)
	path := filepath.Join(t.TempDir(), "disk.bin")
	require.NoError(t, gpt.NewCgptWriter("/opt/bin/cgpt").WriteGPT(computeLayout(t, table), path))

	expected := [][]string{
		{"/opt/bin/cgpt", "create", "*/disk.bin"},
		{"/opt/bin/cgpt", "add", "-i", "1", "-b", "64", "-s", "256", "-t", "data", "-l", "STATE", "-u", uuidPattern, "*/disk.bin"},
		{"/opt/bin/cgpt", "add", "-i", "12", "-b", "330", "-s", "64", "-t", "efi", "-l", "EFI-SYSTEM", "-u", uuidPattern, "*/disk.bin"},
		{"/opt/bin/cgpt", "add", "-i", "3", "-b", "394", "-s", "128", "-t", "rootfs", "-l", "ROOT-A", "-u", "9c8f3b2e-2ad4-4d8e-a0f5-6a4c1e7b3d21", "*/disk.bin"},
	}
	assertCalls(t, expected, recorder.calls)
	assert.Equal(t, mustUUID(t, table, "STATE"), recorder.calls[1][13])
	assert.Equal(t, path, recorder.calls[0][2])

	// the image is created for cgpt to write into
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(testDiskBlocks*512), info.Size())
}

func TestCgptWriteGPTFailure(t *testing.T) {
	recorder := &execRecorder{fail: "add"}
	defer gpt.MockExecCommand(recorder.command)()

	table := loadTable(t, testConfig, 0)
	path := filepath.Join(t.TempDir(), "disk.bin")
	err := gpt.NewCgptWriter("").WriteGPT(computeLayout(t, table), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cgpt add failed")

	// nothing runs after the first failure
	assert.Len(t, recorder.calls, 2)
}

func TestCgptWriteMbrBoot(t *testing.T) {
	recorder := &execRecorder{}
	defer gpt.MockExecCommand(recorder.command)()

	table := loadTable(t, testConfig, 0)
	require.NoError(t, gpt.NewCgptWriter("").WriteMbrBoot(table, "/dev/loop0", "/usr/share/syslinux/gptmbr.bin"))

	expected := [][]string{
		{"cgpt", "boot", "-p", "-b", "/usr/share/syslinux/gptmbr.bin", "-i", "12", "/dev/loop0"},
	}
	assertCalls(t, expected, recorder.calls)
}

func TestCgptWriteMbrBootFailure(t *testing.T) {
	recorder := &execRecorder{fail: "boot"}
	defer gpt.MockExecCommand(recorder.command)()

	table := loadTable(t, testConfig, 0)
	err := gpt.NewCgptWriter("").WriteMbrBoot(table, "/dev/loop0", "/usr/share/syslinux/gptmbr.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cgpt boot failed")
}
