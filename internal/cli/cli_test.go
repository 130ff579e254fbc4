package cli

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/cuetrack/internal/types"
)

const dialogue = `name: demo
videoTracks:
  - id: v
    tracks:
      - {id: v1, startTime: 0, duration: 8, url: bg.mp4}
audioTracks:
  - id: a
    tracks:
      - {id: a1, startTime: 0, duration: 5, url: a1.wav, translatedText: "Hello there."}
  - id: b
    tracks:
      - {id: b1, startTime: 2, duration: 6, url: b1.wav, translatedText: "General Kenobi."}
`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(dialogue), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CUETRACK_LOG_LEVEL", "error")
	var out, errOut bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCues_JSON(t *testing.T) {
	out, err := execute(t, "cues", writeProject(t))
	if err != nil {
		t.Fatalf("cues: %v", err)
	}
	var tracks []types.TrackCues
	if err := json.Unmarshal([]byte(out), &tracks); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(tracks) != 2 || tracks[1].TrackID != "b1" || len(tracks[1].Cues) != 1 {
		t.Fatalf("unexpected cues: %+v", tracks)
	}
}

func TestCues_At(t *testing.T) {
	out, err := execute(t, "cues", writeProject(t), "--at", "3")
	if err != nil {
		t.Fatalf("cues: %v", err)
	}
	for _, want := range []string{`bottom[a]="Hello there."`, `top[b]="General Kenobi."`, "video=v1@3.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestSnapshot_WritesPNG(t *testing.T) {
	t.Setenv("CUETRACK_WIDTH", "320")
	t.Setenv("CUETRACK_HEIGHT", "180")
	dst := filepath.Join(t.TempDir(), "frames", "f.png")
	if _, err := execute(t, "snapshot", writeProject(t), "--at", "1", "--out", dst); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestArgsAndConfigErrors(t *testing.T) {
	path := writeProject(t)
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{name: "no args", args: []string{"cues"}, want: "accepts 1 arg(s), received 0"},
		{name: "unknown flag", args: []string{"cues", path, "--wat"}, want: "unknown flag: --wat"},
		{name: "missing project", args: []string{"cues", path + ".nope"}, want: "no such file"},
		{name: "bad alloc mode", env: map[string]string{"CUETRACK_ALLOC_MODE": "greedy"}, args: []string{"cues", path}, want: "config:"},
		{name: "unknown store", env: map[string]string{"CUETRACK_STORE": "etcd"}, args: []string{"play", path}, want: `unknown store "etcd"`},
		{name: "insecure media base", env: map[string]string{"CUETRACK_MEDIA_BASE_URL": "http://cdn.example.com"}, args: []string{"export", path}, want: "https is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
