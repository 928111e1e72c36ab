package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLogDir(t *testing.T) {
	assert.Equal(t, "/var/log/gc", resolveLogDir("/var/log/gc", "/opt/bin"))
	assert.Equal(t, filepath.Join("/opt/bin", "logs"), resolveLogDir("", "/opt/bin"))
	assert.Equal(t, "logs", resolveLogDir("", ""))
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	require.NoError(t, ensureWritable(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
}

func TestEnsureWritable_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	err := ensureWritable(path)
	assert.ErrorContains(t, err, "failed to create log directory")
}

func TestNew_WritesToEverySink(t *testing.T) {
	var console, sink bytes.Buffer
	logger := New(&console, true, &sink)

	logger.Info().Str("job", "abc").Msg("Analysis finished")

	assert.Contains(t, console.String(), "Analysis finished")
	assert.Contains(t, console.String(), "job=abc")
	assert.Contains(t, sink.String(), `"message":"Analysis finished"`)
	assert.Contains(t, sink.String(), `"job":"abc"`)
}

func TestNewFileWriter(t *testing.T) {
	dir := t.TempDir()
	w := newFileWriter(dir)
	defer w.Close()

	_, err := w.Write([]byte("{}\n"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, LogFileName))
}
