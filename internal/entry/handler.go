package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"warta/internal/entry/model"
	"warta/internal/entry/service"
	"warta/middleware"
	"warta/pkg/logger"
)

// listPageSize is how many entries a listing page carries.
const listPageSize = 20

type EntryHandler struct {
	Service *service.EntryService
}

func NewEntryHandler(service *service.EntryService) *EntryHandler {
	return &EntryHandler{Service: service}
}

// ListEntries serves the public listing, one page at a time (?page=, from 1).
// With ?q= it runs a ranked search instead; ?order=asc flips the timestamp
// ordering of the plain listing.
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		results, err := h.Service.Search(q)
		if err != nil {
			logger.Sugar.Errorf("Search failed for query %q: %v", q, err)
			http.Error(w, "Search failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, results)
		return
	}

	entries, err := h.Service.ListPublished(r.URL.Query().Get("order") == "asc")
	if err != nil {
		logger.Sugar.Errorf("Failed to list entries: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, paginate(entries, r))
}

// GetEntry serves a single entry by slug. Drafts are only visible to an
// authenticated caller; anonymous callers get a 404, not a 403, so draft
// slugs are not discoverable.
func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		http.Error(w, "Missing slug parameter", http.StatusBadRequest)
		return
	}

	e, err := h.Service.GetBySlug(slug)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	if !e.Published && !middleware.IsAuthenticated(r.Context()) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, e)
}

func (h *EntryHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	drafts, err := h.Service.ListDrafts()
	if err != nil {
		logger.Sugar.Errorf("Failed to list drafts: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, paginate(drafts, r))
}

func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.Content == "" {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}

	e, err := h.Service.Create(req.Title, req.Content, req.Published)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(e)
}

// SaveEntry applies a full-field edit to the entry named by ?slug=.
func (h *EntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		http.Error(w, "Missing slug parameter", http.StatusBadRequest)
		return
	}

	var req model.SaveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.Content == "" {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}

	e, err := h.Service.GetBySlug(slug)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	e.Title = req.Title
	e.Content = req.Content
	e.Published = req.Published
	if req.Slug != nil {
		// An explicit empty slug asks for regeneration from the title.
		e.Slug = *req.Slug
	}

	saved, err := h.Service.Save(e)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, saved)
}

// Reindex re-syncs every entry into the search index.
func (h *EntryHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := h.Service.Reindex()
	if err != nil {
		logger.Sugar.Errorf("Reindex failed after %d entries: %v", n, err)
		http.Error(w, "Reindex failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, model.ReindexResponse{Reindexed: n})
}

// paginate slices one ?page= worth of entries out of a listing. Page numbers
// start at 1; anything unparseable falls back to the first page, and a page
// past the end is an empty list, not an error.
func paginate(entries []model.Entry, r *http.Request) []model.Entry {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	start := (page - 1) * listPageSize
	if start >= len(entries) {
		return []model.Entry{}
	}
	end := start + listPageSize
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end]
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrDuplicateSlug):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "Entry not found", http.StatusNotFound)
	case errors.Is(err, model.ErrIndexSync):
		// The row committed; the caller should retry via reindex, not by
		// resubmitting the write.
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
