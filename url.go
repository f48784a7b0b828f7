package sitecrawl

import (
	"net/url"
	"strings"
)

// IsValid reports whether raw is an absolute http or https URL with a host.
func IsValid(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}

// Normalize returns the canonical form of raw: scheme, lowercase host, the
// port only when it is not the scheme default, the path ("/" for the root,
// trailing slash stripped elsewhere) and the query if present. Fragments and
// user info are dropped.
//
// Invalid input is returned unchanged.
func Normalize(raw string) string {
	if !IsValid(raw) {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		// IPv6 literal
		host = "[" + host + "]"
	}
	b.WriteString(host)

	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		b.WriteString(":")
		b.WriteString(port)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		b.WriteString("/")
	} else {
		b.WriteString(strings.TrimSuffix(path, "/"))
	}

	if u.RawQuery != "" || u.ForceQuery {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}

	return b.String()
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// ExtractDomain returns the lowercase host of raw.
// Returns EINVALID if raw is blank, unparseable or has no host.
func ExtractDomain(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", Errorf(EINVALID, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", Errorf(EINVALID, "no host found in URL %q", raw)
	}
	return strings.ToLower(host), nil
}

// InScope reports whether raw belongs to rootDomain or one of its subdomains.
// Matching requires a dot boundary, so "evil-example.com" is not in scope
// of "example.com".
func InScope(raw, rootDomain string) bool {
	domain, err := ExtractDomain(raw)
	if err != nil {
		return false
	}
	return domain == rootDomain || strings.HasSuffix(domain, "."+rootDomain)
}

// ResolveLink resolves a hyperlink target found on the page at base.
// Absolute http(s) links pass through, protocol-relative links inherit the
// base scheme, root-relative links inherit scheme, host and port, and other
// relative links resolve against the base path.
// Fragment-only, mailto: and javascript: targets are discarded and reported
// as false, as are links that cannot be parsed.
func ResolveLink(link, base string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}

	lower := strings.ToLower(link)
	switch {
	case strings.HasPrefix(lower, "#"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "javascript:"):
		return "", false
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return link, true
	}

	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", false
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	return b.ResolveReference(ref).String(), true
}
