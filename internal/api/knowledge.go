package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nidhogg/fived/internal/knowledge"
)

func (h *Handler) knowledgeReady(w http.ResponseWriter) bool {
	if h.knowledge == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge index not initialized")
		return false
	}
	return true
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request) {
	if !h.knowledgeReady(w) {
		return
	}
	var doc knowledge.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.knowledge.Add(r.Context(), doc)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	if !h.knowledgeReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.knowledge.Documents())
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if !h.knowledgeReady(w) {
		return
	}
	if !h.knowledge.Delete(r.Context(), chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchKnowledge(w http.ResponseWriter, r *http.Request) {
	if !h.knowledgeReady(w) {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	mode, err := knowledge.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topK, err := intParam(r, "top_k", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := h.knowledge.Search(r.Context(), q, mode, topK)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
