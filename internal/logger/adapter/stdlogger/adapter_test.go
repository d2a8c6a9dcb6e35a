package stdlogger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsync/dirsync/internal/logger/adapter/stdlogger"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	previous := log.Logger
	log.Logger = zerolog.New(&buf)

	t.Cleanup(func() { log.Logger = previous })

	return &buf
}

func TestNew(t *testing.T) {
	buf := capture(t)

	l := stdlogger.New("ldap", zerolog.WarnLevel)
	l.Printf("bind failed for %s", "svc")

	var event map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))

	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "ldap", event["component"])
	assert.Equal(t, "bind failed for svc", event["message"])
}

func TestWriterSkipsEmptyLines(t *testing.T) {
	buf := capture(t)

	n, err := stdlogger.Writer{Component: "ldap", Level: zerolog.InfoLevel}.Write([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, buf.Len())
}
