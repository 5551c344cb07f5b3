package docforge

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		info    bool
		wantErr bool
	}{
		{level: "", debug: false, info: true},
		{level: "debug", debug: true, info: true},
		{level: " WARN ", debug: false, info: false},
		{level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, closeLog, err := NewLogger(LogOptions{Level: tt.level, Writer: &buf})
			defer closeLog()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			l.Debug().Msg("debug message")
			l.Info().Msg("info message")
			assert.Equal(t, tt.debug, strings.Contains(buf.String(), "debug message"))
			assert.Equal(t, tt.info, strings.Contains(buf.String(), "info message"))
		})
	}
}

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, closeLog, err := NewLogger(LogOptions{Writer: &buf})
	require.NoError(t, err)
	defer closeLog()

	cl := componentLogger(l, "exporter")
	cl.Info().Int("paragraphs", 2).Msg("document exported")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "exporter", entry["component"])
	assert.Equal(t, "document exported", entry["message"])
	assert.EqualValues(t, 2, entry["paragraphs"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docforge.log")
	var buf bytes.Buffer
	l, closeLog, err := NewLogger(LogOptions{Writer: &buf, File: path})
	require.NoError(t, err)

	l.Warn().Msg("to both writers")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both writers")
	assert.Contains(t, buf.String(), "to both writers")
}

func TestSetLogger(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	gl := Logger()
	gl.Info().Msg("global")
	assert.Contains(t, buf.String(), "global")
}
