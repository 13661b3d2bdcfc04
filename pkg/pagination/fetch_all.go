package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultPerPage is injected when the URL does not choose a page size.
const DefaultPerPage = 100

// ErrPageLimit is returned when a Fetcher reaches MaxPages while the
// server still announces a next page.
var ErrPageLimit = errors.New("pagination: page limit reached")

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "github_pages_fetched_total",
		Help: "Total pages fetched while walking paginated GitHub endpoints",
	})

	itemsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "github_page_items_total",
		Help: "Total items collected from paginated GitHub endpoints",
	})
)

// Fetcher walks a paginated endpoint through Doer.
type Fetcher struct {
	// Doer performs the page requests. It should not be a caching Doer.
	Doer client.Doer
	// MaxPages bounds the number of pages requested. 0 means unbounded.
	MaxPages int
	// Logger receives per-page debug logs. The zero value logs through
	// the global logger.
	Logger *zerolog.Logger
}

// FetchAll walks rawURL with an unbounded Fetcher. See Fetcher.FetchAll.
func FetchAll(ctx context.Context, doer client.Doer, rawURL string, headers http.Header, acc []json.RawMessage) ([]json.RawMessage, error) {
	return (&Fetcher{Doer: doer}).FetchAll(ctx, rawURL, headers, acc)
}

// FetchAll requests rawURL and every page reachable through rel="next"
// Link relations, appending the array items of each page to acc in page
// order. The Accept header is always application/vnd.github.v3+json;
// the other headers are sent as given.
//
// Pages whose body is valid JSON but not an array contribute nothing.
// On a transport error, an unreadable or malformed body, or context
// cancellation, the items collected so far are returned with the error.
func (f *Fetcher) FetchAll(ctx context.Context, rawURL string, headers http.Header, acc []json.RawMessage) ([]json.RawMessage, error) {
	logger := f.logger()
	doer := f.Doer
	if doer == nil {
		doer = client.NewHTTPClient(client.DefaultTimeout)
	}

	start := time.Now()
	next := rawURL
	pages := 0

	for next != "" {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		if f.MaxPages > 0 && pages >= f.MaxPages {
			logger.Warn().
				Int("pages", pages).
				Str("next", next).
				Msg("Page limit reached")
			return acc, fmt.Errorf("%w after %d pages", ErrPageLimit, pages)
		}

		pageURL, err := withPerPage(next)
		if err != nil {
			return acc, fmt.Errorf("parse page url: %w", err)
		}

		var items int
		items, next, err = f.fetchPage(ctx, doer, pageURL, headers, &acc)
		if err != nil {
			return acc, err
		}
		pages++
		pagesFetchedTotal.Inc()
		itemsCollectedTotal.Add(float64(items))

		logger.Debug().
			Str("url", pageURL.String()).
			Int("page", pages).
			Int("items", items).
			Bool("has_next", next != "").
			Msg("Fetched page")
	}

	logger.Debug().
		Str("url", rawURL).
		Int("pages", pages).
		Int("items", len(acc)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return acc, nil
}

// fetchPage requests one page, appends its items to acc and returns the
// number appended plus the absolute next URL ("" when there is none).
func (f *Fetcher) fetchPage(ctx context.Context, doer client.Doer, pageURL *url.URL, headers http.Header, acc *[]json.RawMessage) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return 0, "", fmt.Errorf("build page request: %w", err)
	}
	if headers != nil {
		req.Header = headers.Clone()
	}
	req.Header.Set("Accept", client.MediaTypeJSON)

	resp, err := doer.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("fetch %s: %w", pageURL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read %s: %w", pageURL.Redacted(), err)
	}
	if !json.Valid(body) {
		return 0, "", fmt.Errorf("decode %s: invalid JSON (HTTP %d)", pageURL.Redacted(), resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		// Not an array, e.g. {"message": "Not Found"}.
		items = nil
	}
	*acc = append(*acc, items...)

	link, ok := NextLink(resp.Header)
	if !ok {
		return len(items), "", nil
	}
	resolved, err := pageURL.Parse(link)
	if err != nil {
		return len(items), "", fmt.Errorf("parse next link %q: %w", link, err)
	}
	return len(items), resolved.String(), nil
}

func (f *Fetcher) logger() *zerolog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	l := logging.NewLogger(logging.ComponentPagination)
	return &l
}

// withPerPage parses rawURL and adds per_page=DefaultPerPage unless the
// query already carries a per_page parameter.
func withPerPage(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if !q.Has("per_page") {
		q.Set("per_page", strconv.Itoa(DefaultPerPage))
		u.RawQuery = q.Encode()
	}
	return u, nil
}
