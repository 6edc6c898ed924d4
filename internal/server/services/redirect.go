package services

import (
	"net/url"
	"strings"
)

// RedirectPolicy decides which site a code email may link back to. Targets
// on the site origin or on an allowed origin are kept, anything else is
// replaced by the site URL.
type RedirectPolicy struct {
	site    string
	allowed map[string]bool
}

func NewRedirectPolicy(siteURL string, allowList []string) *RedirectPolicy {
	p := &RedirectPolicy{site: strings.TrimSpace(siteURL), allowed: map[string]bool{}}
	for _, raw := range append([]string{p.site}, allowList...) {
		if u, ok := parseWebURL(raw); ok {
			p.allowed[origin(u)] = true
		}
	}
	return p
}

// Resolve returns the link to put into the email for target and whether
// target itself was accepted. Accepted targets are returned re-encoded
// without their fragment.
func (p *RedirectPolicy) Resolve(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return p.site, true
	}
	u, ok := parseWebURL(target)
	if !ok || !p.allowed[origin(u)] {
		return p.site, false
	}
	u.Fragment, u.RawFragment = "", ""
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String(), true
}

func parseWebURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || u.User != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + strings.ToLower(u.Host)
}
