package media

import "testing"

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{
			name:    "empty base means local files",
			baseURL: "",
		},
		{
			name:    "https host",
			baseURL: "https://cdn.example.com/media",
		},
		{
			name:    "http on loopback",
			baseURL: "http://localhost:8080/",
		},
		{
			name:    "reject non-absolute URL",
			baseURL: "cdn.example.com",
			wantErr: true,
		},
		{
			name:    "reject plain http",
			baseURL: "http://cdn.example.com",
			wantErr: true,
		},
		{
			name:         "reject host outside allow list",
			baseURL:      "https://evil.example",
			allowedHosts: []string{"cdn.example.com"},
			wantErr:      true,
		},
		{
			name:         "allow configured host",
			baseURL:      "https://cdn.example.com",
			allowedHosts: []string{"https://CDN.example.com:443/"},
		},
		{
			name:    "reject query",
			baseURL: "https://cdn.example.com?x=1",
			wantErr: true,
		},
		{
			name:    "reject userinfo",
			baseURL: "https://user:pw@cdn.example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAllowedHosts_SkipsBlanks(t *testing.T) {
	out := normalizeAllowedHosts([]string{" ", "https://", "http://", "Media.Example.com:9000"})
	if len(out) != 1 {
		t.Fatalf("expected one host, got %v", out)
	}
	if _, ok := out["media.example.com"]; !ok {
		t.Fatalf("expected normalized host, got %v", out)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r, err := NewResolver("https://cdn.example.com/projects/demo", []string{"assets.example.com"})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "voice/a1.wav", want: "https://cdn.example.com/projects/demo/voice/a1.wav"},
		{ref: "/voice/a1.wav", want: "https://cdn.example.com/projects/demo/voice/a1.wav"},
		{ref: "https://assets.example.com/bg.mp4", want: "https://assets.example.com/bg.mp4"},
		{ref: "https://cdn.example.com/other.mp4", want: "https://cdn.example.com/other.mp4"},
		{ref: "https://evil.example/x.mp4", wantErr: true},
		{ref: "ftp://assets.example.com/x.mp4", wantErr: true},
		{ref: " ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("Resolve(%q) = %q, %v; want %q", tt.ref, got, err, tt.want)
			}
		})
	}
}

func TestResolver_LocalWithoutBase(t *testing.T) {
	r, err := NewResolver("", nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	if got, err := r.Resolve("media/a1.wav"); err != nil || got != "media/a1.wav" {
		t.Fatalf("Resolve = %q, %v", got, err)
	}
}
