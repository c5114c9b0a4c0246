package images

import (
	"net/url"
	"strings"
)

// Proxy rewrites image URLs of allow-listed hosts through an external image
// proxy service. The zero value never applies.
type Proxy struct {
	// BaseURL is prefixed to the query-escaped original URL,
	// e.g. "https://images.weserv.nl/?url=".
	BaseURL string `json:"baseUrl"`

	// Hosts lists the upstream hosts whose images may be proxied. A host
	// also matches its subdomains.
	Hosts []string `json:"hosts"`
}

// Enabled reports whether the proxy has a base URL and at least one host.
func (p Proxy) Enabled() bool {
	return p.BaseURL != "" && len(p.Hosts) > 0
}

// Applies reports whether raw points at an allow-listed upstream host.
func (p Proxy) Applies(raw string) bool {
	if !p.Enabled() || p.IsProxied(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range p.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Rewrite returns the proxied form of raw.
func (p Proxy) Rewrite(raw string) string {
	return p.BaseURL + url.QueryEscape(raw)
}

// IsProxied reports whether raw already goes through the proxy.
func (p Proxy) IsProxied(raw string) bool {
	return p.BaseURL != "" && strings.HasPrefix(raw, p.BaseURL)
}

// Origin recovers the original URL from a proxied one. It returns "" when
// raw is not a proxy URL.
func (p Proxy) Origin(raw string) string {
	if !p.IsProxied(raw) {
		return ""
	}
	origin, err := url.QueryUnescape(strings.TrimPrefix(raw, p.BaseURL))
	if err != nil {
		return ""
	}
	return origin
}
