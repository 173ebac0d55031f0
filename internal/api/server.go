// Package api exposes the stored price snapshots and a scrape trigger over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/suppscan/suppscan/internal/models"
)

// Store is the read surface the API serves; implemented by
// database.ProductRepository.
type Store interface {
	LatestByCategory(ctx context.Context, category models.Category) ([]*models.Product, error)
	History(ctx context.Context, productID string) ([]*models.Product, error)
}

// Trigger starts a scrape run for a category. Runs are asynchronous; the
// API only acknowledges the kick-off.
type Trigger interface {
	StartScrape(category models.Category) error
}

type Server struct {
	store   Store
	trigger Trigger
	router  chi.Router
	logger  *slog.Logger
}

func NewServer(store Store, trigger Trigger) *Server {
	s := &Server{
		store:   store,
		trigger: trigger,
		logger:  slog.Default().With("component", "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/products", s.handleProducts)
	r.Get("/api/products/{id}/history", s.handleHistory)
	r.Post("/api/scrapes", s.handleScrape)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := s.store.LatestByCategory(r.Context(), category)
	if err != nil {
		s.logger.Error("failed to load products", "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	if products == nil {
		products = []*models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product id is required")
		return
	}

	history, err := s.store.History(r.Context(), productID)
	if err != nil {
		s.logger.Error("failed to load history", "product_id", productID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no snapshots for product")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type scrapeRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeError(w, http.StatusServiceUnavailable, "scraping is not enabled on this server")
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.trigger.StartScrape(category); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"runId":    uuid.New().String(),
		"category": string(category),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
