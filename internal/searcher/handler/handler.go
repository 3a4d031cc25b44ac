// Package handler exposes the search service over HTTP/JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/paginator"
)

// maxBodyBytes bounds AddDocument request bodies.
const maxBodyBytes = 1 << 20

// SearchService is the subset of service.Service used by the handler.
type SearchService interface {
	AddDocument(ctx context.Context, id int, text string, status document.Status, ratings []int) error
	RemoveDocument(ctx context.Context, id int) error
	RemoveDuplicates(ctx context.Context) ([]int, error)
	Search(ctx context.Context, rawQuery string, status document.Status) (*service.SearchResult, error)
	Match(ctx context.Context, rawQuery string, id int) (*service.MatchResult, error)
	WordFrequencies(id int) map[string]float64
	DocumentIDs() []int
	Stats() service.Stats
	InvalidateCache(ctx context.Context) (int64, error)
}

type Handler struct {
	svc             SearchService
	defaultPageSize int
	logger          *slog.Logger
}

func New(svc SearchService, defaultPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 5
	}
	return &Handler{
		svc:             svc,
		defaultPageSize: defaultPageSize,
		logger:          slog.Default().With("component", "search-handler"),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}/words", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.Match)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/dedup", h.RemoveDuplicates)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health", h.Health)
}

// AddDocumentRequest is the body of POST /api/v1/documents.
type AddDocumentRequest struct {
	ID      *int            `json:"document_id"`
	Text    string          `json:"text"`
	Status  document.Status `json:"status"`
	Ratings []int           `json:"ratings"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ID == nil {
		h.writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if err := h.svc.AddDocument(r.Context(), *req.ID, req.Text, req.Status, req.Ratings); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": *req.ID,
		"status":      "indexed",
	})
}

// ListDocuments pages through live ids in ascending order.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	ids := h.svc.DocumentIDs()
	items, pages, err := pageOf(ids, page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"document_ids": items,
		"total":        len(ids),
		"page":         page,
		"page_size":    pageSize,
		"pages":        pages,
	})
}

func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveDocument(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"status":      "removed",
	})
}

func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"frequencies": h.svc.WordFrequencies(id),
	})
}

func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Match(r.Context(), r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// SearchResponse is one page of a top-k result list.
type SearchResponse struct {
	*service.SearchResult
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	status := document.StatusActual
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := document.ParseStatus(raw)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		status = parsed
	}
	page, pageSize, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Search(r.Context(), query, status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	total := len(result.Results)
	items, pages, err := pageOf(result.Results, page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	result.Results = items

	logger.FromContext(r.Context()).Info("search completed",
		"query", query,
		"status", status,
		"returned", total,
		"cache_hit", result.CacheHit,
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		SearchResult: result,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		Pages:        pages,
	})
}

func (h *Handler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.RemoveDuplicates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"count":   len(removed),
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.InvalidateCache(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "invalidated",
		"keys_deleted": deleted,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	pageSize = h.defaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "page_size must be a positive integer")
			return 0, 0, false
		}
		pageSize = n
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "page must be a non-negative integer")
			return 0, 0, false
		}
		page = n
	}
	return page, pageSize, true
}

// pageOf returns page i of items. Page 0 of an empty list is empty rather
// than out of range.
func pageOf[T any](items []T, i, pageSize int) ([]T, int, error) {
	p, err := paginator.New(items, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if p.Len() == 0 && i == 0 {
		return []T{}, 0, nil
	}
	page, err := p.Page(i)
	if err != nil {
		return nil, 0, err
	}
	return page, p.Len(), nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.writeError(w, http.StatusGatewayTimeout, "request cancelled")
		return
	}
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, status, "internal error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
