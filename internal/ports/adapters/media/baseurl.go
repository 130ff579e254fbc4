package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/"
}

// ValidateBaseURL checks the media base URL. An empty base is valid and means
// relative track URLs are local paths.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)
	if baseURL == "" {
		return nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid CUETRACK_MEDIA_BASE_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid CUETRACK_MEDIA_BASE_URL %q: absolute URL with host is required", baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid CUETRACK_MEDIA_BASE_URL %q: userinfo is not allowed", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid CUETRACK_MEDIA_BASE_URL %q: query and fragment are not allowed", baseURL)
	}
	return checkHost(u, normalizeAllowedHosts(allowedHosts), "CUETRACK_MEDIA_BASE_URL")
}

// checkHost requires https (http only on loopback) and, when allowed is
// non-empty, a listed host.
func checkHost(u *url.URL, allowed map[string]struct{}, what string) error {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", what, u)
	}

	switch scheme {
	case "https":
	case "http":
		if _, ok := loopbackHosts[host]; !ok {
			return fmt.Errorf("invalid %s %q: https is required", what, u)
		}
	default:
		return fmt.Errorf("invalid %s %q: unsupported scheme %q", what, u, scheme)
	}

	if len(allowed) == 0 {
		return nil
	}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in CUETRACK_MEDIA_ALLOWED_HOSTS", what, u, host)
	}
	return nil
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}

// Resolver turns track URLs into playable locations.
type Resolver struct {
	base    *url.URL
	allowed map[string]struct{}
}

func NewResolver(baseURL string, allowedHosts []string) (*Resolver, error) {
	if err := ValidateBaseURL(baseURL, allowedHosts); err != nil {
		return nil, err
	}
	r := &Resolver{allowed: normalizeAllowedHosts(allowedHosts)}
	if b := normalizeBaseURL(baseURL); b != "" {
		u, _ := url.Parse(b)
		r.base = u
		if len(r.allowed) > 0 {
			r.allowed[strings.ToLower(u.Hostname())] = struct{}{}
		}
	}
	return r, nil
}

// Resolve joins relative references onto the base URL. Without a base they
// are returned unchanged as local paths. Absolute URLs must pass the same
// scheme and host checks as the base.
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty media url")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid media url %q: %w", ref, err)
	}
	if u.IsAbs() {
		if err := checkHost(u, r.allowed, "media url"); err != nil {
			return "", err
		}
		return u.String(), nil
	}
	if r.base == nil {
		return ref, nil
	}
	return r.base.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/"), RawQuery: u.RawQuery}).String(), nil
}
