// Package http serves the resolve API together with health and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"locres/internal/catalog"
	"locres/internal/core"
	"locres/internal/flood"
	"locres/internal/i18n"
	"locres/internal/resource"
	"locres/pkg/format"
)

const (
	serviceName     = "locres"
	maxRequestBytes = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Service bundles what the handlers serve.
type Service struct {
	Live     *catalog.Live
	Resolver *i18n.Resolver
	Metrics  *Metrics
	// Gate rate limits the /v1 routes; nil disables limiting.
	Gate *flood.Floodgate
	// Language of the home page and of error messages.
	Language string

	matcherMu    sync.Mutex
	matcherTable *resource.Table
	matcher      language.Matcher
}

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	service *Service
}

func NewServer(config *core.ServerConfig, service *Service, logger *zap.Logger) *Server {
	mux := setupRoutes(service, logger)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, mux),
		service: service,
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(service *Service, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, statusResponse{Status: "ok", Service: serviceName})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !service.Live.Ready() {
			writeJSON(w, logger, http.StatusServiceUnavailable, statusResponse{Status: "loading", Service: serviceName})
			return
		}
		writeJSON(w, logger, http.StatusOK, statusResponse{Status: "ready", Service: serviceName})
	})

	mux.Handle("/metrics", service.Metrics.Handler())
	mux.HandleFunc("GET /v1/locales", service.limit("locales", logger, localesHandler(service, logger)))
	mux.HandleFunc("POST /v1/resolve", service.limit("resolve", logger, resolveHandler(service, logger)))
	mux.HandleFunc("GET /{$}", homeHandler(service, logger))

	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.service.Metrics
}

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type resolveRequest struct {
	Locale string `json:"locale"`
	Key    string `json:"key"`
	Args   []any  `json:"args"`
}

type resolveResponse struct {
	Text      string `json:"text"`
	Locale    string `json:"locale"`
	Requested string `json:"requested"`
	Fallback  bool   `json:"fallback"`
}

type localeInfo struct {
	Locale  string `json:"locale"`
	Keys    int    `json:"keys"`
	Default bool   `json:"default,omitempty"`
}

type localesResponse struct {
	Default   string       `json:"default"`
	Templates int          `json:"templates"`
	Locales   []localeInfo `json:"locales"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (s *Service) localizer() *i18n.Localizer {
	return i18n.NewLocalizer(s.Language)
}

func (s *Service) writeError(w http.ResponseWriter, logger *zap.Logger, status int, kind, message string) {
	s.Metrics.RecordError(kind)
	writeJSON(w, logger, status, errorResponse{Error: message, Kind: kind})
}

// limit wraps next with the flood gate, keyed by route and remote address.
func (s *Service) limit(route string, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	if s.Gate == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, wait := s.Gate.Allow(route, clientAddress(r))
		if !allowed {
			seconds := int(wait.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			s.Metrics.RecordResolution("rate_limited", 0)
			s.writeError(w, logger, http.StatusTooManyRequests, "rate_limited", s.localizer().T("error.rate_limited"))
			return
		}
		next(w, r)
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// negotiate picks the catalogue locale best matching an Accept-Language
// header. It returns "" when nothing matches, which selects the default
// locale.
func (s *Service) negotiate(table *resource.Table, header string) string {
	if header == "" || table == nil {
		return ""
	}
	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return ""
	}

	locales := table.Locales()

	s.matcherMu.Lock()
	if s.matcherTable != table {
		s.matcher = language.NewMatcher(locales)
		s.matcherTable = table
	}
	matcher := s.matcher
	s.matcherMu.Unlock()

	// The client's own tag is kept when the table can reach the match through
	// its parent chain, so a regional fallback is reported as one.
	for _, tag := range desired {
		_, index, confidence := matcher.Match(tag)
		if confidence == language.No {
			continue
		}
		matched := locales[index]
		tagBase, _ := tag.Base()
		matchedBase, _ := matched.Base()
		if tagBase == matchedBase {
			return tag.String()
		}
		return matched.String()
	}
	return ""
}

func resolveHandler(s *Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		loc := s.localizer()

		var req resolveRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		decoder.UseNumber()
		if err := decoder.Decode(&req); err != nil {
			s.Metrics.RecordResolution("bad_request", time.Since(start))
			s.writeError(w, logger, http.StatusBadRequest, "bad_request", loc.T("error.bad_request", err.Error()))
			return
		}
		if strings.TrimSpace(req.Key) == "" {
			s.Metrics.RecordResolution("bad_request", time.Since(start))
			s.writeError(w, logger, http.StatusBadRequest, "bad_request", loc.T("error.bad_request", "key is required"))
			return
		}

		locale := req.Locale
		if locale == "" {
			locale = s.negotiate(s.Live.Table(), r.Header.Get("Accept-Language"))
		}

		result, err := s.Resolver.Resolve(locale, req.Key, req.Args...)
		if err != nil {
			s.writeResolveError(w, logger, req.Key, locale, err, time.Since(start))
			return
		}

		status := "ok"
		if result.Resolution.Fallback != nil {
			status = "fallback"
		}
		s.Metrics.RecordResolution(status, time.Since(start))

		writeJSON(w, logger, http.StatusOK, resolveResponse{
			Text:      result.Text,
			Locale:    result.Resolution.Locale.String(),
			Requested: locale,
			Fallback:  result.Resolution.Fallback != nil,
		})
	}
}

func (s *Service) writeResolveError(w http.ResponseWriter, logger *zap.Logger, key, locale string,
	err error, elapsed time.Duration) {
	loc := s.localizer()

	var notFound *resource.NotFoundError
	switch {
	case errors.Is(err, catalog.ErrNotLoaded):
		s.Metrics.RecordResolution("not_ready", elapsed)
		s.writeError(w, logger, http.StatusServiceUnavailable, "not_ready", loc.T("error.not_ready"))
	case errors.As(err, &notFound):
		s.Metrics.RecordResolution("not_found", elapsed)
		s.Metrics.RecordError("not_found")
		writeJSON(w, logger, http.StatusNotFound, errorResponse{
			Error:       loc.T("error.not_found", key, locale),
			Kind:        "not_found",
			Suggestions: notFound.Suggestions,
		})
	case errors.Is(err, format.ErrMissingArgument):
		s.Metrics.RecordResolution("format_error", elapsed)
		s.writeError(w, logger, http.StatusUnprocessableEntity, "missing_argument", loc.T("error.format", key, err.Error()))
	case errors.Is(err, format.ErrTypeMismatch):
		s.Metrics.RecordResolution("format_error", elapsed)
		s.writeError(w, logger, http.StatusUnprocessableEntity, "type_mismatch", loc.T("error.format", key, err.Error()))
	case errors.Is(err, format.ErrSyntax):
		s.Metrics.RecordResolution("format_error", elapsed)
		s.writeError(w, logger, http.StatusUnprocessableEntity, "syntax", loc.T("error.format", key, err.Error()))
	default:
		logger.Error("Resolve failed", zap.String("key", key), zap.String("locale", locale), zap.Error(err))
		s.Metrics.RecordResolution("error", elapsed)
		s.writeError(w, logger, http.StatusInternalServerError, "internal", loc.T("error.generic"))
	}
}

func localesHandler(s *Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		table := s.Live.Table()
		if table == nil {
			s.writeError(w, logger, http.StatusServiceUnavailable, "not_ready", s.localizer().T("error.not_ready"))
			return
		}

		def := table.DefaultLocale()
		resp := localesResponse{Default: def.String(), Templates: table.Len()}
		for _, tag := range table.Locales() {
			resp.Locales = append(resp.Locales, localeInfo{
				Locale:  tag.String(),
				Keys:    len(table.Keys(tag)),
				Default: tag.String() == resp.Default,
			})
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

var homePage = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">{{.Title}}</h1>
    <p>{{.Body}}</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>POST /v1/resolve</code> - Resolve and format a template</div>
    <div class="endpoint"><a href="/v1/locales">/v1/locales</a> - Locales and key counts</div>
    <div class="endpoint"><a href="/metrics">/metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">/healthz</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">/readyz</a> - Readiness check</div>
</body>
</html>
`))

func homeHandler(s *Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		loc := s.localizer()

		var locales, templates int
		if table := s.Live.Table(); table != nil {
			locales = len(table.Locales())
			templates = table.Len()
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		err := homePage.Execute(w, struct {
			Language string
			Title    string
			Body     string
		}{
			Language: loc.Language(),
			Title:    loc.T("home.title"),
			Body:     loc.T("home.body", locales, templates),
		})
		if err != nil {
			logger.Debug("Failed to render home page", zap.Error(err))
		}
	}
}
