package pagination

import (
	"net/http"
	"regexp"
)

// HeaderLink is the RFC 5988 response header GitHub paginates with.
const HeaderLink = "Link"

// linkNextPattern matches the "next" relation in a GitHub Link header.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// NextLink returns the URL of the rel="next" relation in h, if any.
// Every Link value is searched, since some proxies split the relations
// across several header lines.
func NextLink(h http.Header) (string, bool) {
	for _, link := range h.Values(HeaderLink) {
		if matches := linkNextPattern.FindStringSubmatch(link); len(matches) == 2 {
			return matches[1], true
		}
	}
	return "", false
}
