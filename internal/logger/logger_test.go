package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("INFO")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	SetLevel("WARN")
	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "[WARN] warn line")
	assert.Contains(t, out, "[ERROR] error line")
}

func TestSetLevelCaseInsensitive(t *testing.T) {
	buf := capture(t)

	SetLevel("debug")
	Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestFormatArguments(t *testing.T) {
	buf := capture(t)

	Info("value is %d for %s", 42, "key")
	assert.Contains(t, buf.String(), "value is 42 for key")
}

func TestAccessWritesVerbatim(t *testing.T) {
	buf := capture(t)

	Access(`1.2.3.4 - - [01/Jan/2026:00:00:00 +0000] "GET / HTTP/1.1" 200 2 0ms`)

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Equal(t, `1.2.3.4 - - [01/Jan/2026:00:00:00 +0000] "GET / HTTP/1.1" 200 2 0ms`, line)
}
