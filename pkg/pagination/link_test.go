package pagination

import (
	"net/http"
	"testing"
)

func TestNextLink(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
		wantOK bool
	}{
		{
			name:   "next and last",
			values: []string{`<https://api.github.com/repos/o/r/issues?page=2>; rel="next", <https://api.github.com/repos/o/r/issues?page=5>; rel="last"`},
			want:   "https://api.github.com/repos/o/r/issues?page=2",
			wantOK: true,
		},
		{
			name:   "next after prev",
			values: []string{`<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=3>; rel="next"`},
			want:   "https://api.github.com/x?page=3",
			wantOK: true,
		},
		{
			name:   "last page",
			values: []string{`<https://api.github.com/x?page=1>; rel="first", <https://api.github.com/x?page=4>; rel="prev"`},
		},
		{
			name:   "split across header lines",
			values: []string{`<https://api.github.com/x?page=1>; rel="prev"`, `<https://api.github.com/x?page=3>; rel="next"`},
			want:   "https://api.github.com/x?page=3",
			wantOK: true,
		},
		{
			name: "absent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tt.values {
				h.Add(HeaderLink, v)
			}
			got, ok := NextLink(h)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NextLink() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWithPerPage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.github.com/repos/o/r/issues", "https://api.github.com/repos/o/r/issues?per_page=100"},
		{"https://api.github.com/repos/o/r/issues?state=all", "https://api.github.com/repos/o/r/issues?per_page=100&state=all"},
		{"https://api.github.com/repos/o/r/issues?per_page=50", "https://api.github.com/repos/o/r/issues?per_page=50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := withPerPage(tt.in)
			if err != nil {
				t.Fatalf("withPerPage() error = %v", err)
			}
			if u.String() != tt.want {
				t.Errorf("withPerPage() = %q, want %q", u.String(), tt.want)
			}
		})
	}

	if _, err := withPerPage("http://[::1"); err == nil {
		t.Error("expected error for malformed URL")
	}
}
