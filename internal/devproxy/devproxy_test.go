package devproxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rss-relay-go/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRule_MatchesAndStrip(t *testing.T) {
	r := Rule{Prefix: "/api"}

	tests := []struct {
		path      string
		wantMatch bool
		wantStrip string
	}{
		{"/api", true, "/"},
		{"/api/", true, "/"},
		{"/api/text/rss/feed", true, "/text/rss/feed"},
		{"/apix", false, ""},
		{"/other/api", false, ""},
		{"/", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := r.Matches(tt.path); got != tt.wantMatch {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.wantMatch)
			}
			if tt.wantMatch {
				if got := r.Strip(tt.path); got != tt.wantStrip {
					t.Errorf("Strip(%q) = %q, want %q", tt.path, got, tt.wantStrip)
				}
			}
		})
	}
}

func TestNewRules(t *testing.T) {
	rules, err := NewRules([]config.RedirectConfig{
		{Prefix: "/api", Target: "https://podcasts.subsplash.com"},
		{Prefix: "/feeds", Target: "http://127.0.0.1:9000/base"},
	})
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	if rules[0].Target.Host != "podcasts.subsplash.com" {
		t.Errorf("rules[0].Target.Host = %q", rules[0].Target.Host)
	}
	if rules[1].Target.Path != "/base" {
		t.Errorf("rules[1].Target.Path = %q, want %q", rules[1].Target.Path, "/base")
	}

	if _, err := NewRules([]config.RedirectConfig{{Prefix: "/api", Target: "http://[::1"}}); err == nil {
		t.Error("NewRules() expected error for unparsable target, got nil")
	}
}

// seen captures what the remote origin received.
type seen struct {
	path, query, host, method string
}

func newOrigin(t *testing.T, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = seen{path: r.URL.Path, query: r.URL.RawQuery, host: r.Host, method: r.Method}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"from":"origin"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewServer_ForwardsWithPrefixStripped(t *testing.T) {
	var got seen
	origin := newOrigin(t, &got)
	originURL, _ := url.Parse(origin.URL)

	cfg := &config.Config{Dev: config.DevConfig{
		Redirects: []config.RedirectConfig{{Prefix: "/api", Target: origin.URL}},
	}}
	e, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	tests := []struct {
		name      string
		method    string
		target    string
		wantPath  string
		wantQuery string
	}{
		{"nested path with query", http.MethodGet, "/api/media/feed?page=2", "/media/feed", "page=2"},
		{"bare prefix", http.MethodGet, "/api", "/", ""},
		{"post forwarded too", http.MethodPost, "/api/items", "/items", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = seen{}
			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			req.Host = "localhost:8080"
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
			}
			if rec.Body.String() != `{"from":"origin"}` {
				t.Errorf("body = %q, want origin body", rec.Body.String())
			}
			if got.path != tt.wantPath {
				t.Errorf("origin path = %q, want %q", got.path, tt.wantPath)
			}
			if got.query != tt.wantQuery {
				t.Errorf("origin query = %q, want %q", got.query, tt.wantQuery)
			}
			if got.host != originURL.Host {
				t.Errorf("origin Host = %q, want %q", got.host, originURL.Host)
			}
			if got.method != tt.method {
				t.Errorf("origin method = %q, want %q", got.method, tt.method)
			}
		})
	}
}

func TestNewServer_UnmatchedPathNotForwarded(t *testing.T) {
	var got seen
	origin := newOrigin(t, &got)

	cfg := &config.Config{Dev: config.DevConfig{
		Redirects: []config.RedirectConfig{{Prefix: "/api", Target: origin.URL}},
	}}
	e, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	for _, p := range []string{"/apix", "/feed.xml"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, http.NoBody))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", p, rec.Code, http.StatusNotFound)
		}
	}
	if got.path != "" {
		t.Errorf("origin should not be called, got path %q", got.path)
	}
}

func TestNewServer_OriginDown(t *testing.T) {
	cfg := &config.Config{Dev: config.DevConfig{
		Redirects: []config.RedirectConfig{{Prefix: "/api", Target: "http://127.0.0.1:1"}},
	}}
	e, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", http.NoBody))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestNewServer_StaticFrontend(t *testing.T) {
	var got seen
	origin := newOrigin(t, &got)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Dev: config.DevConfig{
		StaticDir: dir,
		Redirects: []config.RedirectConfig{{Prefix: "/api", Target: origin.URL}},
	}}
	e, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantBody string
	}{
		{"asset", "/app.js", "console.log(1)"},
		{"history fallback", "/episodes/42", "<html>app</html>"},
		{"redirect prefix bypasses static", "/api/feed", `{"from":"origin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
