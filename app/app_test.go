package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsync/dirsync/internal/sync"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer

	report := sync.Report{Added: 2, Updated: 1, Skipped: 3, Elapsed: 1500 * time.Millisecond}
	require.NoError(t, printReport(&buf, "import", report, true))
	assert.Equal(t, "import: 2 added, 1 updated, 3 skipped, 0 failed in 1.5s\n", buf.String())

	buf.Reset()
	require.ErrorIs(t, printReport(&buf, "export", sync.Report{}, false), ErrRunFailed)
	assert.Contains(t, buf.String(), "export: 0 added")
}

func TestConfigDump(t *testing.T) {
	t.Cleanup(func() { viper.Set(keyConfig, nil) })

	var buf bytes.Buffer

	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "dump", "--config", "../etc"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "[directory]")

	buf.Reset()
	rootCmd.SetArgs([]string{"config", "dump", "--json", "--config", "../etc"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), `"Directory"`)
}
