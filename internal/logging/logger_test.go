package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace": TRACE,
		"DEBUG": DEBUG,
		"info":  INFO,
		"warn":  WARN,
		"error": ERROR,
		"":      INFO,
		"loud":  INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestWriterLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("test", &buf, WARN)

	l.Info("тихо")
	l.Warn("громко %d", 1)
	l.Error("очень громко")

	out := buf.String()
	assert.NotContains(t, out, "тихо")
	assert.Contains(t, out, "[WARN] [test] громко 1")
	assert.Contains(t, out, "[ERROR] [test] очень громко")

	assert.False(t, l.Enabled(DEBUG))
	l.SetLevels(DEBUG, DEBUG)
	assert.True(t, l.Enabled(DEBUG))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(ERROR))
	l.Error("никуда")
	assert.NoError(t, l.Close())
}

func TestSetDefaultLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefaultLogger(prev) })

	var buf bytes.Buffer
	SetDefaultLogger(NewWriterLogger("default", &buf, TRACE))
	SetDefaultLogger(nil)

	Trace("след")
	Info("инфо")
	assert.Contains(t, buf.String(), "[TRACE] [default] след")
	assert.Contains(t, buf.String(), "[INFO] [default] инфо")
}

func TestNewLogger_WritesFile(t *testing.T) {
	prev := LogDir
	LogDir = t.TempDir()
	t.Cleanup(func() { LogDir = prev })

	l, err := NewLogger("replay")
	require.NoError(t, err)
	l.SetLevels(ERROR+1, DEBUG)
	l.Debug("в файл")
	l.Trace("мимо")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(LogDir, "replay_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [replay] в файл")
	assert.NotContains(t, string(data), "мимо")
}

func TestLoggerManager(t *testing.T) {
	prev := LogDir
	LogDir = t.TempDir()
	t.Cleanup(func() { LogDir = prev })

	lm := newLoggerManager()
	lm.SetDefaultLevels(WARN, ERROR)
	a, err := lm.GetLogger("session")
	require.NoError(t, err)
	b, err := lm.GetLogger("session")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.False(t, a.Enabled(INFO))

	_, err = lm.GetLogger("replay")
	require.NoError(t, err)
	assert.Equal(t, []string{"replay", "session"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("session", DEBUG, DEBUG))
	assert.True(t, a.Enabled(DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", WARN, WARN))

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
