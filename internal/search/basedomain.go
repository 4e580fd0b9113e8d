package search

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BaseDomain extracts the registrable base domain from a URL or hostname,
// handling multi-part TLDs like ".co.uk" (spec §4.4 host rate-limit bucket
// key). Two indexers on subdomains of the same base domain contend for the
// same host bucket.
func BaseDomain(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	base, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return base
}
