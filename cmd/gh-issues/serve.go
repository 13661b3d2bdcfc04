package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/issues"
	"github.com/Sternrassler/gh-issue-client/pkg/metrics"
	"github.com/Sternrassler/gh-issue-client/pkg/notify"
	"github.com/Sternrassler/gh-issue-client/pkg/pagination"
	"github.com/spf13/cobra"
)

// maxDocumentBytes bounds the HTML accepted by POST /issues.
const maxDocumentBytes = 10 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve issue lookups over HTTP",
	Long: `Serve exposes the fetchers over HTTP:

  POST /issues          HTML document in the body, returns the issue index
  GET  /list?url=<url>  items of a paginated endpoint (path or absolute URL)
  GET  /health          liveness
  GET  /metrics         Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newServer(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", cfg.Addr).Str("github_api", cfg.APIBase()).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// issuesResponse is the body of POST /issues.
type issuesResponse struct {
	Issues        map[int]issues.Record `json:"issues"`
	Notifications []notify.Notification `json:"notifications"`
}

func newServer(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/issues", issuesHandler(a))
	mux.HandleFunc("/list", listHandler(a))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func issuesHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		doc, err := issues.ParseHTML(io.LimitReader(r.Body, maxDocumentBytes))
		if err != nil {
			http.Error(w, fmt.Sprintf("parse document: %v", err), http.StatusBadRequest)
			return
		}

		recorder := &notify.Recorder{}
		index, err := a.issueFetcher(notify.Multi(recorder, notifier())).FetchAndStore(r.Context(), a.cfg, doc)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Issue fetch interrupted")
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
			return
		}

		notifications := recorder.Notifications()
		if notifications == nil {
			notifications = []notify.Notification{}
		}
		a.writeJSON(w, http.StatusOK, issuesResponse{
			Issues:        index.Records(),
			Notifications: notifications,
		})
	}
}

func listHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		target := r.URL.Query().Get("url")
		if target == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}

		listURL := a.listURL(target)
		if !a.sameAPIHost(listURL) {
			http.Error(w, "url must point at the configured GitHub API host", http.StatusBadRequest)
			return
		}

		items, err := a.pageFetcher().FetchAll(r.Context(), listURL, client.RequestHeaders(a.cfg), nil)
		switch {
		case errors.Is(err, pagination.ErrPageLimit):
			w.Header().Set("X-Page-Limit-Reached", "true")
		case err != nil:
			a.logger.Warn().Err(err).Str("url", target).Msg("List fetch failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		a.writeJSON(w, http.StatusOK, items)
	}
}

// writeJSON encodes v as the response body. The status is already sent
// when encoding fails, so the failure is only logged.
func (a *app) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn().Err(err).Int("status", status).Msg("Failed to write JSON response")
	}
}
