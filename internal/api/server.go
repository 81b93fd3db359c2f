// Package api exposes the aggregate over REST. Routes mirror the paths the
// web client consumes (/api/streaming/...).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/affiliate"
	"github.com/bingeboard/stream-watcher/internal/aggregate"
	"github.com/bingeboard/stream-watcher/internal/platform"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// anonymousUser attributes clicks from sessions the caller did not identify.
const anonymousUser = "anonymous"

type Server struct {
	service *aggregate.Service
}

func NewServer(service *aggregate.Service) *Server {
	return &Server{service: service}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/streaming", func(r chi.Router) {
		r.Get("/comprehensive/{mediaType}/{tmdbID}", s.comprehensiveHandler)
		r.Post("/affiliate", s.affiliateHandler)
		r.Get("/platforms/{name}", s.platformHandler)
	})
	r.Get("/healthz", s.healthHandler)

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("api: failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) comprehensiveHandler(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.Atoi(chi.URLParam(r, "tmdbID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "tmdb id must be numeric")
		return
	}
	query := r.URL.Query()
	q := internal.AvailabilityQuery{
		TMDBID:    tmdbID,
		IMDBID:    query.Get("imdb_id"),
		Title:     query.Get("title"),
		MediaType: internal.MediaType(chi.URLParam(r, "mediaType")),
		Region:    query.Get("region"),
	}

	result, err := s.service.ComprehensiveAvailability(r.Context(), q)
	if err != nil {
		if errors.Is(err, aggregate.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "availability lookup failed")
		return
	}

	if wantAffiliate(query.Get("affiliate")) {
		userID := query.Get("user_id")
		if userID == "" {
			userID = anonymousUser
		}
		aggregate.DecorateAffiliateLinks(&result, userID)
	}
	writeJSON(w, http.StatusOK, result)
}

func wantAffiliate(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

type affiliateRequest struct {
	Platform  string `json:"platform"`
	WebURL    string `json:"web_url,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	ContentID int    `json:"content_id"`
	Title     string `json:"title"`
}

func (s *Server) affiliateHandler(w http.ResponseWriter, r *http.Request) {
	var req affiliateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Platform == "" {
		writeError(w, http.StatusBadRequest, "platform is required")
		return
	}
	if req.ContentID <= 0 {
		writeError(w, http.StatusBadRequest, "content_id must be a positive number")
		return
	}
	if req.UserID == "" {
		req.UserID = anonymousUser
	}

	rec := internal.PlatformAvailability{
		ProviderName:  req.Platform,
		CanonicalName: platform.Normalize(req.Platform),
		WebURL:        req.WebURL,
	}
	link := affiliate.GenerateLink(rec, req.UserID, req.ContentID, req.Title)
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) platformHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	canonical := platform.Normalize(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"input":               name,
		"canonical":           canonical,
		"rank_score":          platform.Rank(canonical),
		"affiliate_supported": platform.AffiliateSupported(canonical),
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
