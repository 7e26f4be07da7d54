package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Info("analyzed %d files", 3)
	Warn("slow")
	Error("boom\n")
	Debug("hidden")
	InfoFileOnly("file only")

	assert.Equal(t, "[INFO] analyzed 3 files\n[WARN] slow\n[ERROR] boom\n", buf.String())

	SetVerbose(true)
	defer SetVerbose(false)
	Debug("shown")
	assert.True(t, strings.HasSuffix(buf.String(), "[DEBUG] shown\n"))
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	path, err := InitLogger(t.TempDir())
	require.NoError(t, err)

	Info("to both")
	InfoFileOnly("file only")
	Debug("debug line")
	Close()

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(bs)
	assert.Contains(t, content, "[INFO] to both")
	assert.Contains(t, content, "[INFO] file only")
	assert.Contains(t, content, "[DEBUG] debug line")
	assert.Contains(t, content, "logger_test.go")

	assert.Equal(t, "[INFO] to both\n", buf.String())
}
