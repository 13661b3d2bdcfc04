package client

import (
	"encoding/base64"
	"net/http"

	"github.com/Sternrassler/gh-issue-client/pkg/config"
)

// GitHub v3 media types.
const (
	// MediaTypeHTML asks GitHub to render issue bodies to HTML (body_html).
	MediaTypeHTML = "application/vnd.github.v3.html+json"

	// MediaTypeJSON is the plain JSON media type used for list traversal.
	MediaTypeJSON = "application/vnd.github.v3+json"
)

// RequestHeaders builds the headers for a GitHub API request.
//
// Accept is always set. With both user and token, Authorization is
// "Basic base64(user:token)"; with only a token it is "token <token>";
// otherwise it is omitted. Credentials are not validated.
func RequestHeaders(cfg config.Config) http.Header {
	headers := http.Header{}
	headers.Set("Accept", MediaTypeHTML)

	switch {
	case cfg.GitHubUser != "" && cfg.GitHubToken != "":
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.GitHubUser + ":" + cfg.GitHubToken))
		headers.Set("Authorization", "Basic "+credentials)
	case cfg.GitHubToken != "":
		headers.Set("Authorization", "token "+cfg.GitHubToken)
	}

	return headers
}
