package common

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLogrus(buf *bytes.Buffer) *logrus.Logger {
	return &logrus.Logger{
		Out: buf,
		Formatter: &logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.DebugLevel,
	}

}

func TestInfoWithBuildInfo(t *testing.T) {
	commit, buildTime := BuildCommit, BuildTime
	defer func() { BuildCommit, BuildTime = commit, buildTime }()
	BuildCommit = "abc123"
	BuildTime = "N/A"

	buf := &bytes.Buffer{}
	l := makeLogrus(buf)
	l.AddHook(&BuildHook{})
	l.Info("test message")
	require.Equal(t, "level=info msg=\"test message\" build_commit=abc123 build_time=N/A\n", buf.String())
}

func TestJournalKey(t *testing.T) {
	assert.Equal(t, "IMAGE_TYPE", journalKey("image_type"))
	assert.Equal(t, "DISK_PATH", journalKey("disk-path"))
	assert.Equal(t, "LABEL", journalKey("_label"))
	assert.Equal(t, "NUM3", journalKey("num3"))
	assert.Equal(t, "", journalKey("__"))
}

func TestJournalVars(t *testing.T) {
	vars := journalVars("cgpt-layout", logrus.Fields{
		"label": "ROOT-A",
		"num":   3,
		"__":    "dropped",
	})
	assert.Equal(t, map[string]string{
		"LABEL":             "ROOT-A",
		"NUM":               "3",
		"SYSLOG_IDENTIFIER": "cgpt-layout",
	}, vars)

	assert.Empty(t, journalVars("", nil))
}
