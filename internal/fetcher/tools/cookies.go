// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"fmt"
	"os"
	"strings"
)

type CookiePair struct {
	Name  string
	Value string
}

// ParseCookieHeader splits a raw Cookie-header-formatted credential blob
// into discrete name/value pairs for the browser control surface.
func ParseCookieHeader(raw string) []CookiePair {
	var pairs []CookiePair
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found || strings.TrimSpace(name) == "" {
			continue
		}
		pairs = append(pairs, CookiePair{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return pairs
}

// WriteCookieJar materializes the raw cookie string as a temporary
// Netscape-format jar for subprocess tools. The caller must invoke
// cleanup once the cycle ends, success or not.
func WriteCookieJar(raw, domain string) (path string, cleanup func(), err error) {
	pairs := ParseCookieHeader(raw)
	if len(pairs) == 0 {
		return "", nil, fmt.Errorf("no cookies found in credential string")
	}

	f, err := os.CreateTemp("", "statsync-cookies-*.txt")
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	for _, p := range pairs {
		// domain, include-subdomains, path, secure, expiry, name, value
		fmt.Fprintf(&b, ".%s\tTRUE\t/\tTRUE\t0\t%s\t%s\n", domain, p.Name, p.Value)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}

	name := f.Name()
	return name, func() { os.Remove(name) }, nil
}
