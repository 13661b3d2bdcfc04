package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/gh-issue-client/internal/testutil"
	"github.com/Sternrassler/gh-issue-client/pkg/config"
	"github.com/Sternrassler/gh-issue-client/pkg/notify"
	"github.com/rs/zerolog"
)

const testDocument = `<html><body>
<p class="issue" data-number="1">one</p>
<p class="issue" data-number="abc">bad</p>
<p class="issue" data-number="42">answer</p>
</body></html>`

func newTestApp(t *testing.T) (*app, *testutil.MockGitHub) {
	t.Helper()
	mock := testutil.NewMockGitHub()
	t.Cleanup(mock.Close)

	c := config.DefaultConfig()
	c.GitHubAPI = mock.RepoURL("w3c", "respec")

	a, err := newApp(context.Background(), c)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, mock
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestIssuesEndpoint(t *testing.T) {
	a, mock := newTestApp(t)
	mock.SetIssueResponse("w3c", "respec", 1, testutil.NewIssueResponse(`{"number":1,"title":"Fix bug","state":"open"}`))
	srv := newServer(a)

	t.Run("post_document", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/issues", strings.NewReader(testDocument))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var got issuesResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(got.Issues) != 2 {
			t.Fatalf("Expected 2 issues, got %d: %+v", len(got.Issues), got.Issues)
		}
		if got.Issues[1].Title != "Fix bug" || got.Issues[1].Message != "" {
			t.Errorf("issue 1 = %+v", got.Issues[1])
		}
		if got.Issues[42].Message != "Not Found" {
			t.Errorf("issue 42 message = %q", got.Issues[42].Message)
		}
		if len(got.Notifications) != 1 || got.Notifications[0].Topic != notify.TopicError {
			t.Errorf("notifications = %+v", got.Notifications)
		}
	})

	t.Run("wrong_method", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest("GET", "/issues", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})
}

func TestListEndpoint(t *testing.T) {
	a, mock := newTestApp(t)
	mock.SetPages("/repos/w3c/respec/labels", []string{`[{"name":"bug"}]`, `[{"name":"docs"}]`})
	srv := newServer(a)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "relative_path", target: "/labels", wantStatus: 200, wantBody: `[{"name":"bug"},{"name":"docs"}]`},
		{name: "absolute_url", target: a.cfg.APIBase() + "/labels", wantStatus: 200, wantBody: `[{"name":"bug"},{"name":"docs"}]`},
		{name: "not_found_object", target: "/missing", wantStatus: 200, wantBody: `[]`},
		{name: "missing_url", target: "", wantStatus: 400},
		{name: "foreign_host", target: "https://example.com/labels", wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/list?url="+tt.target, nil)
			if tt.target == "" {
				req = httptest.NewRequest("GET", "/list", nil)
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && strings.TrimSpace(w.Body.String()) != tt.wantBody {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestApp(t)
	srv := newServer(a)

	// One issue request so the request counters have samples.
	post := httptest.NewRecorder()
	srv.ServeHTTP(post, httptest.NewRequest("POST", "/issues", strings.NewReader(testDocument)))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "# HELP") || !strings.Contains(body, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	for _, name := range []string{"github_ratelimit_remaining", "github_requests_total", "github_issues_fetched_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestListURL(t *testing.T) {
	a := &app{cfg: config.Config{GitHubAPI: "https://api.github.com/repos/w3c/respec/"}}

	tests := map[string]string{
		"/issues":                       "https://api.github.com/repos/w3c/respec/issues",
		"labels":                        "https://api.github.com/repos/w3c/respec/labels",
		"https://api.github.com/orgs/x": "https://api.github.com/orgs/x",
	}
	for in, want := range tests {
		if got := a.listURL(in); got != want {
			t.Errorf("listURL(%q) = %q, want %q", in, got, want)
		}
	}

	if !a.sameAPIHost("https://api.github.com/orgs/x") {
		t.Error("sameAPIHost should accept the API host")
	}
	if a.sameAPIHost("http://api.github.com/orgs/x") || a.sameAPIHost("https://evil.example/x") {
		t.Error("sameAPIHost should reject other schemes and hosts")
	}
}

func TestNewApp_InvalidRedisURL(t *testing.T) {
	c := config.DefaultConfig()
	c.RedisURL = "://not-a-url"
	if _, err := newApp(context.Background(), c); err == nil {
		t.Error("expected error for malformed redis url")
	}
}

func TestFetchCommand(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetIssueResponse("w3c", "respec", 1, testutil.NewIssueResponse(`{"number":1,"title":"Fix bug","state":"open"}`))
	mock.SetIssueResponse("w3c", "respec", 42, testutil.NewIssueResponse(`{"number":42,"title":"Answer","state":"closed"}`))

	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.html")
	outPath := filepath.Join(dir, "out.html")
	if err := os.WriteFile(docPath, []byte(testDocument), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { annotatePath = "" })

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"fetch", docPath, "--annotate", outPath, "--github_api", mock.RepoURL("w3c", "respec"), "--log_level", "error"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("fetch command error = %v", err)
	}

	var records map[int]json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}

	annotated, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read annotated document: %v", err)
	}
	for _, want := range []string{`data-title="Fix bug"`, `data-state="closed"`} {
		if !strings.Contains(string(annotated), want) {
			t.Errorf("annotated document missing %s", want)
		}
	}
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantLog bool
	}{
		{name: "encodable", value: map[string]int{"n": 1}, wantLog: false},
		{name: "infinite float", value: map[string]float64{"n": math.Inf(1)}, wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			a := &app{logger: zerolog.New(&logs)}
			w := httptest.NewRecorder()

			a.writeJSON(w, http.StatusOK, tt.value)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("Content-Type = %q", got)
			}
			logged := strings.Contains(logs.String(), "Failed to write JSON response")
			if logged != tt.wantLog {
				t.Errorf("logged = %v, want %v: %s", logged, tt.wantLog, logs.String())
			}
		})
	}
}
