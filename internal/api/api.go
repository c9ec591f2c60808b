// Package api exposes the parse and import stages over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/importer"
	"github.com/sells-group/edd-cli/internal/ingest"
	"github.com/sells-group/edd-cli/internal/model"
)

// Caller identity headers set by the authenticating gateway.
const (
	HeaderUserID = "X-User-ID"
	HeaderOrgID  = "X-Org-ID"
	HeaderRole   = "X-User-Role"
)

// Parser runs the parse stage.
type Parser interface {
	Parse(ctx context.Context, uploadID string) (*ingest.Outcome, error)
}

// Importer runs the import stage.
type Importer interface {
	Import(ctx context.Context, req importer.Request) (*importer.Result, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes.
type Deps struct {
	Parser   Parser
	Importer Importer
	Pinger   Pinger
}

type server struct {
	deps Deps
	log  *zap.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps, cfg config.ServerConfig) http.Handler {
	s := &server{deps: deps, log: zap.L().With(zap.String("component", "api"))}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := time.Duration(cfg.RequestTimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderUserID, HeaderOrgID, HeaderRole},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/uploads/{id}", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Post("/parse", s.parse)
		r.Post("/import", s.importUpload)
	})
	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pinger != nil {
		if err := s.deps.Pinger.Ping(r.Context()); err != nil {
			s.log.Warn("api: health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) parse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.deps.Parser.Parse(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) importUpload(w http.ResponseWriter, r *http.Request) {
	req := importer.Request{UploadID: chi.URLParam(r, "id")}
	if user := r.Header.Get(HeaderUserID); user != "" {
		req.Caller = &model.Caller{
			UserID: user,
			OrgID:  r.Header.Get(HeaderOrgID),
			Role:   r.Header.Get(HeaderRole),
		}
	}
	res, err := s.deps.Importer.Import(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"}

	var ie *importer.Error
	var pe *ingest.Error
	switch {
	case errors.As(err, &ie):
		status, body = ie.HTTPStatus(), errorBody{Error: string(ie.Kind), Message: ie.Message}
	case errors.As(err, &pe):
		status, body = pe.HTTPStatus(), errorBody{Error: string(pe.Kind), Message: pe.Message}
	}
	if status >= http.StatusInternalServerError {
		// Internal details stay in the log.
		body.Message = "internal error"
		s.log.Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
