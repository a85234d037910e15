package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/fpldash/internal/feeds"
	appmw "github.com/briangreenhill/fpldash/internal/http/middleware"
	"github.com/briangreenhill/fpldash/internal/jobs"
	"github.com/briangreenhill/fpldash/pkg/fetch"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

// maxWarmBody caps POST /api/warm request bodies.
const maxWarmBody = 64 << 10

type Server struct {
	Router *chi.Mux
	FPL    *fpl.Client
	Feeds  *feeds.Registry
	Queue  jobs.Enqueuer // nil when no redis is configured
}

type ServerOptions struct {
	FPL    *fpl.Client
	Feeds  *feeds.Registry
	Queue  jobs.Enqueuer
	Logger zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, FPL: opts.FPL, Feeds: opts.Feeds, Queue: opts.Queue}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Get("/api/fpl/*", s.handleFPL)
	r.Post("/api/warm", s.handleWarm)

	r.Get("/feeds", s.handleFeedList)
	r.Get("/feeds/{name}", s.handleFeed)
	r.Get("/feeds/{name}/{id}", s.handleFeed)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// handleFPL is a same-origin pass-through to the FPL API for known
// resources, answered from the shared cache when possible.
func (s *Server) handleFPL(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		resource += "?" + r.URL.RawQuery
	}
	if !fpl.Allowed(resource) {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "unknown resource"})
		return
	}

	res, err := s.FPL.Raw(r.Context(), resource)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fetch.ErrDataUnavailable) {
			status = http.StatusBadGateway
		}
		hlog.FromRequest(r).Warn().Err(err).Str("resource", resource).Msg("fpl proxy failed")
		writeJSON(w, r, status, map[string]string{"error": fetch.UserMessage(err)})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", string(res.Source))
	if _, err := w.Write(res.Data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write fpl response")
	}
}

type warmRequest struct {
	Resources []string `json:"resources"`
	TTLMs     int64    `json:"ttl_ms,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}

func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": "no queue configured"})
		return
	}

	var req warmRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWarmBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || len(req.Resources) == 0 {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "expected {\"resources\": [...]}"})
		return
	}
	if req.TTLMs < 0 {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "ttl_ms must not be negative"})
		return
	}

	ttl := time.Duration(req.TTLMs) * time.Millisecond
	ids, err := jobs.EnqueueWarm(r.Context(), s.Queue, req.Resources, ttl, req.Mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, jobs.ErrUnknownResource) || errors.Is(err, jobs.ErrUnknownMode) {
			status = http.StatusBadRequest
		}
		hlog.FromRequest(r).Warn().Err(err).Msg("enqueue warm tasks")
		writeJSON(w, r, status, map[string]any{"error": err.Error(), "task_ids": ids})
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]any{"task_ids": ids})
}

func (s *Server) handleFeedList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{"feeds": s.Feeds.List()})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, ok := s.Feeds.Get(name)
	if !ok {
		http.Error(w, "unknown feed "+name, http.StatusNotFound)
		return
	}

	var (
		out string
		err error
	)
	if id := chi.URLParam(r, "id"); id != "" {
		out, err = f.Get(r.Context(), id)
	} else {
		out, err = f.Latest(r.Context())
	}
	switch {
	case errors.Is(err, feeds.ErrBadID), errors.Is(err, feeds.ErrUnsupported):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Str("feed", name).Msg("feed failed")
		http.Error(w, "feed failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(out)); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write feed response")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode json response")
	}
}
