package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
)

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "objrt", false)
	assert.True(t, strings.HasPrefix(buf.String(), "objrt v"+config.RuntimeVersion+"\n"), buf.String())

	buf.Reset()
	PrintVersion(&buf, "objrt", true)
	var got struct {
		Tool        string      `json:"tool"`
		VersionInfo VersionInfo `json:"version_info"`
	}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, got.Tool, "objrt")
	assert.Equal(t, got.VersionInfo.Version, config.RuntimeVersion)
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name           string
		verbose, debug bool
		want           []string
	}{
		{"quiet", false, false, []string{"[WARN]", "[ERROR]"}},
		{"verbose", true, false, []string{"[INFO]", "[WARN]", "[ERROR]"}},
		{"debug", false, true, []string{"[DEBUG]", "[WARN]", "[ERROR]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(tt.verbose, tt.debug)
			l.SetOutput(&buf)

			l.Info("info %d", 1)
			l.Debug("debug %d", 2)
			l.Warn("warn %d", 3)
			l.Error("error %d", 4)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Equal(t, len(lines), len(tt.want))
			for i, prefix := range tt.want {
				if i < len(lines) {
					assert.True(t, strings.HasPrefix(lines[i], prefix), lines[i])
				}
			}
		})
	}
}

func TestPrintCommandUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintCommandUsage(&buf, "objrt", CommandInfo{
		Name:        "gc",
		Usage:       "objrt gc [--objects N]",
		Description: "Run a collection demo",
		Flags:       []FlagInfo{{Name: "objects", Usage: "objects to allocate", Default: "1000"}},
		Examples:    []string{"objrt gc --objects 10"},
	})
	out := buf.String()
	assert.Contains(t, out, "objrt gc - Run a collection demo")
	assert.Contains(t, out, "--objects")
	assert.Contains(t, out, "Default: 1000")
	assert.Contains(t, out, "EXAMPLES:")
}
