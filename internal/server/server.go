// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP: an HTML form for
// interactive use, a JSON endpoint, health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/metrics"
	"github.com/pdiddy/patent-rank/internal/pipeline"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// maxBodyBytes bounds request bodies on the search endpoints.
const maxBodyBytes = 64 << 10

// Searcher runs one search action.
type Searcher interface {
	Run(ctx context.Context, req pipeline.Request) (types.SearchReport, error)
}

// Server serves the search UI and API.
type Server struct {
	search  Searcher
	logger  *zap.Logger
	excerpt int
}

// New returns a Server backed by search. excerpt bounds the abstract
// length shown in the HTML table (<= 0 shows it whole).
func New(search Searcher, logger *zap.Logger, excerpt int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, logger: logger, excerpt: excerpt}
}

// Handler returns the chi router with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.accessLog)
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Post("/search", s.handleSearchForm)
	r.Post("/api/search", s.handleSearchAPI)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// searchRequest is the JSON body of POST /api/search.
type searchRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Question     string `json:"question"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

// handleSearchForm runs a search from the HTML form. Like the interactive
// form it replaces, an incomplete submission just redisplays the form.
func (s *Server) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, pageData{Error: err.Error()})
		return
	}
	req := pipeline.Request{
		Credentials: types.Credentials{
			ClientID:     r.PostFormValue("client_id"),
			ClientSecret: r.PostFormValue("client_secret"),
		},
		Question: r.PostFormValue("question"),
	}
	data := pageData{Question: req.Question}

	rep, err := s.search.Run(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrIncompleteInput):
		s.renderPage(w, http.StatusOK, data)
		return
	case err != nil:
		s.logger.Warn("search failed", zap.Error(err))
		data.Error = err.Error()
		s.renderPage(w, http.StatusBadGateway, data)
		return
	}

	data.Searched = true
	data.Warning = rep.Warning
	data.Rows = rows(rep.Results, s.excerpt)
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) handleSearchAPI(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	rep, err := s.search.Run(r.Context(), pipeline.Request{
		Credentials: types.Credentials{ClientID: body.ClientID, ClientSecret: body.ClientSecret},
		Question:    body.Question,
	})
	switch {
	case errors.Is(err, pipeline.ErrIncompleteInput):
		writeError(w, http.StatusBadRequest, "incomplete_input", err.Error())
		return
	case err != nil:
		s.logger.Warn("search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "search_failed", err.Error())
		return
	}
	if rep.Results == nil {
		rep.Results = []types.RankedResult{}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// recoverer turns a panic into a 500 and logs the stack.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// accessLog emits one log line per request and echoes X-Request-ID.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
