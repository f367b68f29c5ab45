// Package httpapi exposes the configured sections over HTTP for a browser front end.
package httpapi

import (
	"net/http"
	"time"

	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/export"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/view"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

const requestIDHeader = "X-Request-ID"

const defaultRequestsPerMinute = 120

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            logging.Logger
	Catalog           *view.Catalog
	Cache             *datacache.Cache
	Delimiter         rune
	RequestsPerMinute int
}

// NewRouter constructs the chi.Router serving the sections API.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	rpm := params.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	delimiter := params.Delimiter
	if delimiter == 0 {
		delimiter = export.DefaultDelimiter
	}

	h := &Handler{
		catalog:   params.Catalog,
		cache:     params.Cache,
		delimiter: delimiter,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(echoRequestID)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(httprate.Limit(rpm, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
			}),
		))
		api.Get("/sections", h.handleSections)
		api.Get("/sections/{section}", h.handleSection)
		api.Get("/sections/{section}/export.csv", h.handleExport)
		api.Post("/reload", h.handleReload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Problem(w, http.StatusNotFound, "Not Found", r.URL.Path)
	})
	return r
}

func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(requestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("Request served",
				logging.F("method", r.Method),
				logging.F(logging.FieldURL, r.URL.Path),
				logging.F(logging.FieldStatus, ww.Status()),
				logging.F(logging.FieldRequestID, chimw.GetReqID(r.Context())),
				logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		})
	}
}
