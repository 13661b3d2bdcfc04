// Package pagination walks paginated GitHub list endpoints.
//
// GitHub announces the following page in the Link response header
// (<url>; rel="next"). FetchAll requests a page, appends the elements of
// its JSON array body to an accumulator and follows the next relation
// until none is left. Pages are fetched strictly one after another, so
// items come back in the order the server declared them.
//
// Example usage:
//
//	headers := client.RequestHeaders(cfg)
//	items, err := pagination.FetchAll(ctx, http.DefaultClient,
//		cfg.APIBase()+"/issues?state=all", headers, nil)
//
// The fetcher:
//   - Adds per_page=100 unless the URL already sets per_page
//   - Always asks for application/vnd.github.v3+json
//   - Skips pages whose body is not a JSON array (e.g. error objects)
//   - Does not cache and does not inspect rate-limit headers
//
// A Fetcher with MaxPages set stops after that many pages and reports
// ErrPageLimit together with the items collected so far.
package pagination
