package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	d := Default()
	if !d.AllocChecks || !d.BoundsChecks || !d.MemoryChecks || !d.MagicChecks || !d.GC {
		t.Errorf("all switches should default on: %+v", d)
	}
	if Current() == nil {
		t.Fatal("Current() is nil before any Apply")
	}
}

func TestApplySwapsSnapshot(t *testing.T) {
	prev := Apply(Switches{GC: false, BoundsChecks: true})
	defer Apply(prev)

	if Current().GC {
		t.Error("GC should be off after Apply")
	}
	if !prev.GC {
		t.Error("previous snapshot should have GC on")
	}
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "objrt.toml", "gc = false\nmemory_limit = 4096\n"},
		{"yaml", "objrt.yaml", "gc: false\nmemory_limit: 4096\n"},
		{"json", "objrt.json", `{"gc": false, "memory_limit": 4096}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			s, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if s.GC {
				t.Error("gc should be false")
			}
			if s.MemoryLimit != 4096 {
				t.Errorf("memory_limit = %d", s.MemoryLimit)
			}
			if !s.BoundsChecks {
				t.Error("unset switches keep their defaults")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Default() {
		t.Errorf("got %+v, want defaults", s)
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "gc = = true")

	_, err := Load(path)
	var perr *ParseError
	if !stderrors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Path != path {
		t.Errorf("Path = %q", perr.Path)
	}

	if err := Decode("x.ini", nil, &Switches{}); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	s := Default()
	err := ApplyEnv(&s, []string{
		"OBJRT_BOUNDS_CHECKS=false",
		"OBJRT_MEMORY_LIMIT=1024",
		"OBJRT_UNKNOWN=1",
		"PATH=/bin",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if s.BoundsChecks {
		t.Error("bounds checks should be disabled")
	}
	if s.MemoryLimit != 1024 {
		t.Errorf("memory limit = %d", s.MemoryLimit)
	}

	if err := ApplyEnv(&s, []string{"OBJRT_GC=maybe"}); err == nil {
		t.Error("invalid bool should fail")
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		constraint string
		ok         bool
	}{
		{"", true},
		{">= 0.1.0", true},
		{"^0.1", true},
		{">= 1.0.0", false},
		{"not a constraint", false},
	}

	for _, tt := range tests {
		err := CheckVersion(tt.constraint)
		if (err == nil) != tt.ok {
			t.Errorf("CheckVersion(%q) = %v, want ok=%v", tt.constraint, err, tt.ok)
		}
	}
}

func TestLoadRejectsIncompatibleVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "objrt.yaml", "requires: \">= 2.0.0\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected version constraint failure")
	}
}

func TestWatcherReloads(t *testing.T) {
	prev := Current()
	defer Apply(*prev)

	dir := t.TempDir()
	path := writeFile(t, dir, "objrt.toml", "gc = true\n")

	changes := make(chan Switches, 4)
	w, err := NewWatcher(path, func(s Switches) {
		select {
		case changes <- s:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, dir, "objrt.toml", "gc = false\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-changes:
			// A truncating write can surface an intermediate empty file first.
			if s.GC {
				continue
			}
			if Current().GC {
				t.Error("reload should be applied globally")
			}
			return
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
