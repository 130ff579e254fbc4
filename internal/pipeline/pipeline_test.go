package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Project.yaml", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-project-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-project-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

const projectYAML = `name: Demo Cut
audioTracks:
  - id: a
    tracks:
      - {id: a1, startTime: 10, duration: 5, url: a1.wav, translatedText: "Hello world. This is a test."}
`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(projectYAML), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	path := writeProject(t)
	base := Config{ProjectPath: path, Subtitles: subtitles.DefaultConfig()}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "missing project", mutate: func(c *Config) { c.ProjectPath = "" }, wantErr: true},
		{name: "project not found", mutate: func(c *Config) { c.ProjectPath = path + ".nope" }, wantErr: true},
		{name: "max below min", mutate: func(c *Config) { c.Subtitles.MaxDuration = 1 }, wantErr: true},
		{name: "bad media base", mutate: func(c *Config) { c.MediaBaseURL = "http://cdn.example.com" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun_WritesSubtitlesAndManifest(t *testing.T) {
	outRoot := filepath.Join(t.TempDir(), "out")
	var logs []string
	cfg := Config{
		ProjectPath: writeProject(t),
		OutDir:      outRoot,
		Subtitles:   subtitles.DefaultConfig(),
		Width:       1920,
		Height:      1080,
		Logf:        func(format string, args ...any) { logs = append(logs, format) },
		now:         func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) },
	}

	dir, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dir), "demo-20260301-080000Z-") {
		t.Fatalf("unexpected run dir: %s", dir)
	}

	ass, err := os.ReadFile(filepath.Join(dir, "subtitles.ass"))
	if err != nil {
		t.Fatalf("read ass: %v", err)
	}
	if !strings.Contains(string(ass), "Dialogue: 0,0:00:10.00,") || !strings.Contains(string(ass), ",Bottom,a,0,0,0,,Hello world.") {
		t.Fatalf("unexpected subtitles:\n%s", ass)
	}

	b, err := os.ReadFile(filepath.Join(dir, "cues.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Project != "Demo Cut" || m.Duration != 15 || len(m.Tracks) != 1 || len(m.Tracks[0].Cues) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if c := m.Tracks[0].Cues; c[0].End != c[1].Start || c[1].End != 15 {
		t.Fatalf("cues do not partition the window: %+v", c)
	}
	if len(logs) == 0 {
		t.Fatalf("expected progress logs")
	}
}
