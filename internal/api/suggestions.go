package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nidhogg/fived/internal/entity"
	"github.com/nidhogg/fived/internal/linker"
)

// suggestOptions reads min_confidence, max, worlds and projects over the
// configured defaults.
func (h *Handler) suggestOptions(r *http.Request) (linker.Options, error) {
	opts := h.defaults
	var err error
	if opts.MinConfidence, err = floatParam(r, "min_confidence", opts.MinConfidence); err != nil {
		return opts, err
	}
	if opts.MaxSuggestions, err = intParam(r, "max", opts.MaxSuggestions); err != nil {
		return opts, err
	}
	if opts.MaxSuggestions <= 0 {
		return opts, errors.New("max must be positive")
	}
	if opts.IncludeWorldLinks, err = boolParam(r, "worlds", opts.IncludeWorldLinks); err != nil {
		return opts, err
	}
	if opts.IncludeProjectLinks, err = boolParam(r, "projects", opts.IncludeProjectLinks); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.suggestOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.linking.Suggestions(r.Context(), r.Header.Get(SessionHeader), opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) entitySuggestions(typ entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := h.suggestOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id := chi.URLParam(r, "id")
		out, err := h.linking.SuggestionsFor(r.Context(), r.Header.Get(SessionHeader), id, typ, opts)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handler) acceptSuggestion(w http.ResponseWriter, r *http.Request) {
	var sg linker.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&sg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if sg.SourceID == "" || sg.TargetID == "" {
		writeError(w, http.StatusBadRequest, "source_id and target_id are required")
		return
	}
	if err := h.linking.Accept(r.Context(), r.Header.Get(SessionHeader), sg); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "linked",
		"id":     linker.SuggestionID(sg.SourceID, sg.TargetID),
	})
}

type dismissRequest struct {
	SuggestionID string `json:"suggestion_id"`
	SessionID    string `json:"session_id,omitempty"`
}

func (h *Handler) dismissSuggestion(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SuggestionID == "" {
		writeError(w, http.StatusBadRequest, "suggestion_id is required")
		return
	}
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = req.SessionID
	}
	if err := h.linking.Dismiss(r.Context(), sessionID, req.SuggestionID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func (h *Handler) resetDismissed(w http.ResponseWriter, r *http.Request) {
	if err := h.linking.ResetDismissed(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) entityLinks(w http.ResponseWriter, r *http.Request) {
	edges, err := h.linking.Links(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

// candidates lists entity names, optionally restricted to one type.
func (h *Handler) candidates(r *http.Request) ([]linker.Candidate, error) {
	var only entity.Type
	if t := r.URL.Query().Get("type"); t != "" {
		typ, ok := entity.ParseType(t)
		if !ok {
			return nil, errBadType(t)
		}
		only = typ
	}

	snap, err := h.store.Snapshot(r.Context())
	if err != nil {
		return nil, err
	}
	var out []linker.Candidate
	if only == "" || only == entity.TypeCharacter {
		for _, c := range snap.Characters {
			out = append(out, linker.Candidate{ID: c.ID, Name: c.Name, Type: entity.TypeCharacter})
		}
	}
	if only == "" || only == entity.TypeWorld {
		for _, w := range snap.Worlds {
			out = append(out, linker.Candidate{ID: w.ID, Name: w.Name, Type: entity.TypeWorld})
		}
	}
	if only == "" || only == entity.TypeProject {
		for _, p := range snap.Projects {
			out = append(out, linker.Candidate{ID: p.ID, Name: p.Name, Type: entity.TypeProject})
		}
	}
	return out, nil
}

type badTypeError string

func (e badTypeError) Error() string { return "unknown entity type " + string(e) }

func errBadType(t string) error { return badTypeError(t) }

func (h *Handler) searchNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cands, err := h.candidates(r)
	if err != nil {
		h.candidateFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, linker.SearchNames(q, cands, limit))
}

func (h *Handler) matchName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	threshold, err := floatParam(r, "threshold", linker.DefaultMatchThreshold)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cands, err := h.candidates(r)
	if err != nil {
		h.candidateFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match": linker.FindBestMatch(q, cands, threshold),
	})
}

func (h *Handler) candidateFail(w http.ResponseWriter, err error) {
	if _, ok := err.(badTypeError); ok {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.fail(w, err)
}
