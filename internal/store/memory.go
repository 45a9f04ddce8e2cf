package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nidhogg/fived/internal/entity"
)

// Memory is an in-process Entities implementation. Lists come back in
// insertion order and every returned value is a copy.
type Memory struct {
	mu         sync.RWMutex
	characters map[string]*entity.Character
	worlds     map[string]*entity.World
	projects   map[string]*entity.Project
	order      map[entity.Type][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		characters: make(map[string]*entity.Character),
		worlds:     make(map[string]*entity.World),
		projects:   make(map[string]*entity.Project),
		order:      make(map[entity.Type][]string),
	}
}

func (m *Memory) track(t entity.Type, id string) {
	m.order[t] = append(m.order[t], id)
}

func (m *Memory) untrack(t entity.Type, id string) {
	m.order[t] = slices.DeleteFunc(m.order[t], func(v string) bool { return v == id })
}

func copyCharacter(c *entity.Character) entity.Character {
	out := *c
	out.Motivations = slices.Clone(c.Motivations)
	out.Fears = slices.Clone(c.Fears)
	return out
}

func copyWorld(w *entity.World) entity.World {
	out := *w
	out.Factions = slices.Clone(w.Factions)
	return out
}

func (m *Memory) SaveCharacter(_ context.Context, c *entity.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.UpdatedAt = now
	if prev, ok := m.characters[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else {
		c.CreatedAt = now
		m.track(entity.TypeCharacter, c.ID)
	}
	stored := copyCharacter(c)
	m.characters[c.ID] = &stored
	return nil
}

func (m *Memory) GetCharacter(_ context.Context, id string) (*entity.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	out := copyCharacter(c)
	return &out, nil
}

func (m *Memory) ListCharacters(_ context.Context) ([]entity.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCharacters(), nil
}

func (m *Memory) listCharacters() []entity.Character {
	out := make([]entity.Character, 0, len(m.characters))
	for _, id := range m.order[entity.TypeCharacter] {
		out = append(out, copyCharacter(m.characters[id]))
	}
	return out
}

func (m *Memory) DeleteCharacter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.characters[id]; !ok {
		return fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	delete(m.characters, id)
	m.untrack(entity.TypeCharacter, id)
	return nil
}

func (m *Memory) SaveWorld(_ context.Context, w *entity.World) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	now := time.Now()
	w.UpdatedAt = now
	if prev, ok := m.worlds[w.ID]; ok {
		w.CreatedAt = prev.CreatedAt
	} else {
		w.CreatedAt = now
		m.track(entity.TypeWorld, w.ID)
	}
	stored := copyWorld(w)
	m.worlds[w.ID] = &stored
	return nil
}

func (m *Memory) GetWorld(_ context.Context, id string) (*entity.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.worlds[id]
	if !ok {
		return nil, fmt.Errorf("world %s: %w", id, ErrNotFound)
	}
	out := copyWorld(w)
	return &out, nil
}

func (m *Memory) ListWorlds(_ context.Context) ([]entity.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listWorlds(), nil
}

func (m *Memory) listWorlds() []entity.World {
	out := make([]entity.World, 0, len(m.worlds))
	for _, id := range m.order[entity.TypeWorld] {
		out = append(out, copyWorld(m.worlds[id]))
	}
	return out
}

// DeleteWorld removes a world and clears references to it, matching the
// ON DELETE SET NULL behavior of the SQL schema.
func (m *Memory) DeleteWorld(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worlds[id]; !ok {
		return fmt.Errorf("world %s: %w", id, ErrNotFound)
	}
	delete(m.worlds, id)
	m.untrack(entity.TypeWorld, id)
	for _, c := range m.characters {
		if c.WorldID == id {
			c.WorldID = ""
		}
	}
	return nil
}

func (m *Memory) SaveProject(_ context.Context, p *entity.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.UpdatedAt = now
	if prev, ok := m.projects[p.ID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
		m.track(entity.TypeProject, p.ID)
	}
	stored := *p
	m.projects[p.ID] = &stored
	return nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*entity.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]entity.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProjects(), nil
}

func (m *Memory) listProjects() []entity.Project {
	out := make([]entity.Project, 0, len(m.projects))
	for _, id := range m.order[entity.TypeProject] {
		out = append(out, *m.projects[id])
	}
	return out
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	delete(m.projects, id)
	m.untrack(entity.TypeProject, id)
	for _, c := range m.characters {
		if c.ProjectID == id {
			c.ProjectID = ""
		}
	}
	for _, w := range m.worlds {
		if w.ProjectID == id {
			w.ProjectID = ""
		}
	}
	return nil
}

// Snapshot copies all collections under a single read lock.
func (m *Memory) Snapshot(_ context.Context) (*entity.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &entity.Snapshot{
		Characters: m.listCharacters(),
		Worlds:     m.listWorlds(),
		Projects:   m.listProjects(),
	}, nil
}

func (m *Memory) LinkCharacterToWorld(_ context.Context, characterID, worldID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[characterID]
	if !ok {
		return fmt.Errorf("character %s: %w", characterID, ErrNotFound)
	}
	if _, ok := m.worlds[worldID]; !ok {
		return fmt.Errorf("world %s: %w", worldID, ErrNotFound)
	}
	c.WorldID = worldID
	c.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) AddCharacterToProject(_ context.Context, characterID, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[characterID]
	if !ok {
		return fmt.Errorf("character %s: %w", characterID, ErrNotFound)
	}
	if _, ok := m.projects[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	c.ProjectID = projectID
	c.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) AddWorldToProject(_ context.Context, worldID, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[worldID]
	if !ok {
		return fmt.Errorf("world %s: %w", worldID, ErrNotFound)
	}
	if _, ok := m.projects[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	w.ProjectID = projectID
	w.UpdatedAt = time.Now()
	return nil
}
