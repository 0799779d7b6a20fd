package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"locres/internal/catalog"
	"locres/internal/core"
	"locres/internal/flood"
	"locres/internal/i18n"
	"locres/internal/resource"
	"locres/pkg/format"
)

func newTestService(t *testing.T, loaded bool) *Service {
	t.Helper()

	metrics := NewMetrics()
	live := catalog.NewLive(nil)
	if loaded {
		b := resource.NewBuilder(language.English).Observe(metrics)
		if err := b.AddAll(language.English, map[string]string{
			"greeting": "Hello %1$s",
			"items":    "You have %1$,d items",
			"price":    "Total: %1$.2f",
		}); err != nil {
			t.Fatal(err)
		}
		if err := b.AddAll(language.German, map[string]string{
			"greeting": "Hallo %1$s",
			"price":    "Summe: %1$.2f",
		}); err != nil {
			t.Fatal(err)
		}
		table := b.Build()
		live.Store(table)
		metrics.SetCatalog(table)
	}

	return &Service{
		Live:     live,
		Resolver: i18n.NewResolver(live, format.NewCache(16)),
		Metrics:  metrics,
		Language: i18n.DefaultLanguage,
	}
}

func serve(mux http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateHTTPServer(t *testing.T) {
	config := &core.ServerConfig{
		Host:         "0.0.0.0",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	mux := http.NewServeMux()
	server := createHTTPServer(config, mux)

	expectedAddr := "0.0.0.0:9090"
	if server.Addr != expectedAddr {
		t.Errorf("createHTTPServer() Addr = %q, expected %q", server.Addr, expectedAddr)
	}

	if server.Handler != mux {
		t.Errorf("createHTTPServer() Handler mismatch")
	}

	if server.ReadTimeout != config.ReadTimeout {
		t.Errorf("createHTTPServer() ReadTimeout = %v, expected %v", server.ReadTimeout, config.ReadTimeout)
	}

	if server.WriteTimeout != config.WriteTimeout {
		t.Errorf("createHTTPServer() WriteTimeout = %v, expected %v", server.WriteTimeout, config.WriteTimeout)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	mux := setupRoutes(newTestService(t, false), zap.NewNop())

	rec := serve(mux, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if contentType := rec.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("/healthz Content-Type = %q, expected %q", contentType, "application/json")
	}

	expected := statusResponse{Status: "ok", Service: "locres"}
	if diff := cmp.Diff(expected, decode[statusResponse](t, rec)); diff != "" {
		t.Errorf("/healthz body mismatch (-want +got):\n%s", diff)
	}
}

func TestReadyzEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		loaded   bool
		code     int
		expected statusResponse
	}{
		{"loading", false, http.StatusServiceUnavailable, statusResponse{Status: "loading", Service: "locres"}},
		{"ready", true, http.StatusOK, statusResponse{Status: "ready", Service: "locres"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupRoutes(newTestService(t, tt.loaded), zap.NewNop())

			rec := serve(mux, http.MethodGet, "/readyz", "", nil)
			if rec.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, rec.Code)
			}
			if diff := cmp.Diff(tt.expected, decode[statusResponse](t, rec)); diff != "" {
				t.Errorf("/readyz body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		header   map[string]string
		expected resolveResponse
	}{
		{
			name:     "exact locale",
			body:     `{"locale":"en","key":"greeting","args":["Ana"]}`,
			expected: resolveResponse{Text: "Hello Ana", Locale: "en", Requested: "en"},
		},
		{
			name:     "grouped integer from JSON number",
			body:     `{"locale":"en","key":"items","args":[12345]}`,
			expected: resolveResponse{Text: "You have 12,345 items", Locale: "en", Requested: "en"},
		},
		{
			name:     "regional fallback uses parent formatting",
			body:     `{"locale":"de-CH","key":"price","args":[3.5]}`,
			expected: resolveResponse{Text: "Summe: 3,50", Locale: "de", Requested: "de-CH", Fallback: true},
		},
		{
			name:     "missing translation falls back to default",
			body:     `{"locale":"de","key":"items","args":[3]}`,
			expected: resolveResponse{Text: "You have 3 items", Locale: "en", Requested: "de", Fallback: true},
		},
		{
			name:     "accept language negotiation",
			body:     `{"key":"greeting","args":["Ana"]}`,
			header:   map[string]string{"Accept-Language": "de-DE,de;q=0.9,en;q=0.5"},
			expected: resolveResponse{Text: "Hallo Ana", Locale: "de", Requested: "de-DE", Fallback: true},
		},
		{
			name:     "accept language exact match",
			body:     `{"key":"greeting","args":["Ana"]}`,
			header:   map[string]string{"Accept-Language": "de"},
			expected: resolveResponse{Text: "Hallo Ana", Locale: "de", Requested: "de"},
		},
		{
			name:     "accept language skips unknown languages",
			body:     `{"key":"price","args":[3.5]}`,
			header:   map[string]string{"Accept-Language": "ja,de-CH;q=0.8"},
			expected: resolveResponse{Text: "Summe: 3,50", Locale: "de", Requested: "de-CH", Fallback: true},
		},
		{
			name:     "unmatched accept language uses default",
			body:     `{"key":"greeting","args":["Ana"]}`,
			header:   map[string]string{"Accept-Language": "ja"},
			expected: resolveResponse{Text: "Hello Ana", Locale: "en", Requested: ""},
		},
	}

	mux := setupRoutes(newTestService(t, true), zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/v1/resolve", tt.body, tt.header)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if diff := cmp.Diff(tt.expected, decode[resolveResponse](t, rec)); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name        string
		loaded      bool
		body        string
		code        int
		kind        string
		suggestions []string
	}{
		{"bad json", true, `{"key":`, http.StatusBadRequest, "bad_request", nil},
		{"empty key", true, `{"locale":"en","key":" "}`, http.StatusBadRequest, "bad_request", nil},
		{"unknown key", true, `{"locale":"en","key":"greting"}`, http.StatusNotFound, "not_found", []string{"greeting"}},
		{"missing argument", true, `{"locale":"en","key":"greeting"}`, http.StatusUnprocessableEntity, "missing_argument", nil},
		{"type mismatch", true, `{"locale":"en","key":"items","args":["many"]}`, http.StatusUnprocessableEntity, "type_mismatch", nil},
		{"not loaded", false, `{"locale":"en","key":"greeting","args":["Ana"]}`, http.StatusServiceUnavailable, "not_ready", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.loaded)
			mux := setupRoutes(service, zap.NewNop())

			rec := serve(mux, http.MethodPost, "/v1/resolve", tt.body, nil)
			if rec.Code != tt.code {
				t.Fatalf("Expected status %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}

			got := decode[errorResponse](t, rec)
			if got.Kind != tt.kind {
				t.Errorf("kind = %q, expected %q", got.Kind, tt.kind)
			}
			if got.Error == "" {
				t.Error("expected an error message")
			}
			if diff := cmp.Diff(tt.suggestions, got.Suggestions); diff != "" {
				t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
			}
			if n := testutil.ToFloat64(service.Metrics.ErrorsTotal.WithLabelValues(tt.kind)); n != 1 {
				t.Errorf("errors_total{kind=%q} = %v, expected 1", tt.kind, n)
			}
		})
	}
}

func TestResolveEndpoint_RateLimited(t *testing.T) {
	service := newTestService(t, true)
	service.Gate = flood.New(2)
	defer service.Gate.Stop()
	mux := setupRoutes(service, zap.NewNop())

	body := `{"locale":"en","key":"greeting","args":["Ana"]}`
	for i := 0; i < 2; i++ {
		if rec := serve(mux, http.MethodPost, "/v1/resolve", body, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}

	rec := serve(mux, http.MethodPost, "/v1/resolve", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected a Retry-After header")
	}
	if got := decode[errorResponse](t, rec).Kind; got != "rate_limited" {
		t.Errorf("kind = %q, expected rate_limited", got)
	}

	// locales is a separate route with its own budget
	if rec := serve(mux, http.MethodGet, "/v1/locales", "", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /v1/locales, got %d", rec.Code)
	}
}

func TestLocalesEndpoint(t *testing.T) {
	mux := setupRoutes(newTestService(t, true), zap.NewNop())

	rec := serve(mux, http.MethodGet, "/v1/locales", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	expected := localesResponse{
		Default:   "en",
		Templates: 5,
		Locales: []localeInfo{
			{Locale: "en", Keys: 3, Default: true},
			{Locale: "de", Keys: 2},
		},
	}
	if diff := cmp.Diff(expected, decode[localesResponse](t, rec)); diff != "" {
		t.Errorf("/v1/locales mismatch (-want +got):\n%s", diff)
	}

	if rec := serve(mux, http.MethodPost, "/v1/locales", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for POST, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	service := newTestService(t, true)
	mux := setupRoutes(service, zap.NewNop())

	serve(mux, http.MethodPost, "/v1/resolve", `{"locale":"de-CH","key":"greeting","args":["Ana"]}`, nil)
	serve(mux, http.MethodPost, "/v1/resolve", `{"locale":"en","key":"greeting","args":["Ana"]}`, nil)
	serve(mux, http.MethodPost, "/v1/resolve", `{"locale":"en","key":"nothing"}`, nil)

	m := service.Metrics
	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"fallbacks de->de", testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("de", "de")), 1},
		{"resolutions ok", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("ok")), 1},
		{"resolutions fallback", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("fallback")), 1},
		{"resolutions not_found", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("not_found")), 1},
		{"missing", testutil.ToFloat64(m.MissingTotal), 1},
		{"locales", testutil.ToFloat64(m.CatalogLocales), 2},
		{"templates", testutil.ToFloat64(m.CatalogTemplates), 5},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s = %v, expected %v", c.name, c.got, c.expected)
		}
	}

	rec := serve(mux, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics returned status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "locres_resolutions_total") {
		t.Error("/metrics does not expose locres_resolutions_total")
	}
}

func TestRequestedLabel(t *testing.T) {
	tests := map[string]string{
		"":        "default",
		"de-CH":   "de",
		"pt-BR":   "pt",
		"not!!ok": "invalid",
		"sr-Latn": "sr",
	}
	for in, expected := range tests {
		if got := requestedLabel(in); got != expected {
			t.Errorf("requestedLabel(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestHomeHandler(t *testing.T) {
	handler := homeHandler(newTestService(t, true), zap.NewNop())

	req := httptest.NewRequest("GET", "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	if contentType := rec.Header().Get("Content-Type"); contentType != "text/html" {
		t.Errorf("Expected Content-Type text/html, got %q", contentType)
	}

	body := rec.Body.String()

	expectedElements := []string{
		"<!DOCTYPE html>",
		"<title>Localized string service</title>",
		"Serving 2 locales with 5 templates.",
		"/v1/resolve",
		"/metrics",
		"/healthz",
		"/readyz",
	}

	for _, element := range expectedElements {
		if !strings.Contains(body, element) {
			t.Errorf("Expected body to contain %q", element)
		}
	}
}

func TestHomeRouteOnlyMatchesRoot(t *testing.T) {
	mux := setupRoutes(newTestService(t, true), zap.NewNop())

	if rec := serve(mux, http.MethodGet, "/", "", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /, got %d", rec.Code)
	}
	if rec := serve(mux, http.MethodGet, "/unknown", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for /unknown, got %d", rec.Code)
	}
}
