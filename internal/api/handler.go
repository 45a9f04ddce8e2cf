package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/entity"
	"github.com/nidhogg/fived/internal/knowledge"
	"github.com/nidhogg/fived/internal/linker"
	"github.com/nidhogg/fived/internal/linking"
	"github.com/nidhogg/fived/internal/notify"
	"github.com/nidhogg/fived/internal/store"
)

// SessionHeader carries the editing session used for dismissals.
const SessionHeader = "X-Session-ID"

// Deps wires the handler. Knowledge and Broadcaster are optional.
type Deps struct {
	Store       store.Entities
	Linking     *linking.Service
	Knowledge   *knowledge.Index
	Broadcaster *notify.Broadcaster
	Defaults    linker.Options
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store       store.Entities
	linking     *linking.Service
	knowledge   *knowledge.Index
	broadcaster *notify.Broadcaster
	defaults    linker.Options
	logger      *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{
		store:       deps.Store,
		linking:     deps.Linking,
		knowledge:   deps.Knowledge,
		broadcaster: deps.Broadcaster,
		defaults:    deps.Defaults,
		logger:      logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SessionHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		h.characters().mount(r, "/characters")
		h.worlds().mount(r, "/worlds")
		h.projects().mount(r, "/projects")

		r.Get("/characters/{id}/suggestions", h.entitySuggestions(entity.TypeCharacter))
		r.Get("/worlds/{id}/suggestions", h.entitySuggestions(entity.TypeWorld))
		r.Get("/projects/{id}/suggestions", h.entitySuggestions(entity.TypeProject))

		r.Get("/suggestions", h.suggestions)
		r.Post("/suggestions/accept", h.acceptSuggestion)
		r.Post("/suggestions/dismiss", h.dismissSuggestion)
		r.Delete("/sessions/{id}/dismissed", h.resetDismissed)

		r.Get("/search", h.searchNames)
		r.Get("/match", h.matchName)
		r.Get("/entities/{id}/links", h.entityLinks)

		r.Post("/knowledge/documents", h.addDocument)
		r.Get("/knowledge/documents", h.listDocuments)
		r.Delete("/knowledge/documents/{id}", h.deleteDocument)
		r.Get("/knowledge/search", h.searchKnowledge)

		r.Get("/notifications", h.notificationHistory)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "fived",
		"graph":     h.linking.GraphEnabled(),
		"knowledge": h.knowledge != nil,
		"vector":    h.knowledge != nil && h.knowledge.VectorEnabled(),
	})
}

func (h *Handler) notificationHistory(w http.ResponseWriter, r *http.Request) {
	if h.broadcaster == nil {
		writeJSON(w, http.StatusOK, []notify.Record{})
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.broadcaster.History(limit))
}

// fail maps a service error to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, linking.ErrUnknownKind),
		errors.Is(err, linking.ErrSessionRequired),
		errors.Is(err, knowledge.ErrEmptyDocument):
		status = http.StatusBadRequest
	case errors.Is(err, linking.ErrGraphUnavailable),
		errors.Is(err, knowledge.ErrVectorUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return f, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(name + " must be true or false")
	}
	return b, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
