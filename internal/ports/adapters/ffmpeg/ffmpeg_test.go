package ffmpeg

import (
	"context"
	"testing"

	"github.com/forPelevin/cuetrack/internal/ports"
)

var _ ports.Prober = (*Adapter)(nil)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "12.480000\n", want: 12.48},
		{in: "  3 ", want: 3},
		{in: "N/A\n", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parseDuration(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestProbeArgs_URLLast(t *testing.T) {
	args := probeArgs("https://cdn.example.com/a.wav")
	if args[len(args)-1] != "https://cdn.example.com/a.wav" {
		t.Fatalf("url must be the last argument: %v", args)
	}
}

func TestProbeDuration_MissingBinary(t *testing.T) {
	a := New("/nonexistent/ffprobe")
	if _, err := a.ProbeDuration(context.Background(), "x.wav"); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
