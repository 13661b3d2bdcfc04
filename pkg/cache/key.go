package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached GitHub response.
type CacheKey struct {
	// Host is the API host (e.g., "api.github.com")
	Host string

	// Endpoint is the request path (e.g., "/repos/w3c/respec/issues/42")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"state": "open"})
	QueryParams url.Values

	// Accept is the requested media type; HTML and JSON renderings differ
	Accept string

	// Credential is a fingerprint of the Authorization header ("" for anonymous)
	Credential string
}

// KeyForRequest derives the key for req. The Authorization header is
// hashed so that private responses are never shared between credentials.
func KeyForRequest(req *http.Request) CacheKey {
	key := CacheKey{
		Host:        req.URL.Host,
		Endpoint:    req.URL.Path,
		QueryParams: req.URL.Query(),
		Accept:      req.Header.Get("Accept"),
	}
	if auth := req.Header.Get("Authorization"); auth != "" {
		sum := sha256.Sum256([]byte(auth))
		key.Credential = hex.EncodeToString(sum[:8])
	}
	return key
}

// String generates a deterministic cache key string.
// Format: gh:host:endpoint:query1=val1:accept=...:cred=abcd
//
// Example:
//
//	gh:api.github.com:repos/w3c/respec/issues/42:accept=application/vnd.github.v3.html+json
func (k CacheKey) String() string {
	parts := []string{"gh"}

	if k.Host != "" {
		parts = append(parts, k.Host)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	if k.Accept != "" {
		parts = append(parts, "accept="+k.Accept)
	}

	if k.Credential != "" {
		parts = append(parts, "cred="+k.Credential)
	}

	return strings.Join(parts, ":")
}
