package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nidhogg/fived/internal/entity"
)

// collection is the CRUD surface of one entity type.
type collection[T any] struct {
	h      *Handler
	save   func(context.Context, *T) error
	get    func(context.Context, string) (*T, error)
	list   func(context.Context) ([]T, error)
	remove func(context.Context, string) error
	id     func(*T) *string
	name   func(*T) string
}

func (c collection[T]) mount(r chi.Router, prefix string) {
	r.Get(prefix, c.listAll)
	r.Post(prefix, c.create)
	r.Get(prefix+"/{id}", c.getOne)
	r.Put(prefix+"/{id}", c.update)
	r.Delete(prefix+"/{id}", c.delete)
}

func (c collection[T]) listAll(w http.ResponseWriter, r *http.Request) {
	items, err := c.list(r.Context())
	if err != nil {
		c.h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (c collection[T]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(c.name(&v)) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := c.save(r.Context(), &v); err != nil {
		c.h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (c collection[T]) getOne(w http.ResponseWriter, r *http.Request) {
	v, err := c.get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (c collection[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := c.get(r.Context(), id); err != nil {
		c.h.fail(w, err)
		return
	}
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	*c.id(&v) = id
	if strings.TrimSpace(c.name(&v)) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := c.save(r.Context(), &v); err != nil {
		c.h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (c collection[T]) delete(w http.ResponseWriter, r *http.Request) {
	if err := c.remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		c.h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) characters() collection[entity.Character] {
	return collection[entity.Character]{
		h:      h,
		save:   h.store.SaveCharacter,
		get:    h.store.GetCharacter,
		list:   h.store.ListCharacters,
		remove: h.store.DeleteCharacter,
		id:     func(c *entity.Character) *string { return &c.ID },
		name:   func(c *entity.Character) string { return c.Name },
	}
}

func (h *Handler) worlds() collection[entity.World] {
	return collection[entity.World]{
		h:      h,
		save:   h.store.SaveWorld,
		get:    h.store.GetWorld,
		list:   h.store.ListWorlds,
		remove: h.store.DeleteWorld,
		id:     func(w *entity.World) *string { return &w.ID },
		name:   func(w *entity.World) string { return w.Name },
	}
}

func (h *Handler) projects() collection[entity.Project] {
	return collection[entity.Project]{
		h:      h,
		save:   h.store.SaveProject,
		get:    h.store.GetProject,
		list:   h.store.ListProjects,
		remove: h.store.DeleteProject,
		id:     func(p *entity.Project) *string { return &p.ID },
		name:   func(p *entity.Project) string { return p.Name },
	}
}
