package entity

import (
	"strings"
	"time"
)

// Type identifies which collection an entity belongs to.
type Type string

const (
	TypeCharacter Type = "character"
	TypeWorld     Type = "world"
	TypeProject   Type = "project"
)

// ParseType maps a loose string (plural forms included) to a Type.
func ParseType(s string) (Type, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "character":
		return TypeCharacter, true
	case "world":
		return TypeWorld, true
	case "project":
		return TypeProject, true
	}
	return "", false
}

// Character is a writer's character sheet.
type Character struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Genre            string    `json:"genre,omitempty"`
	Role             string    `json:"role,omitempty"`
	CoreConcept      string    `json:"core_concept,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	BackstoryProse   string    `json:"backstory_prose,omitempty"`
	PersonalityProse string    `json:"personality_prose,omitempty"`
	ArcProse         string    `json:"arc_prose,omitempty"`
	Motivations      []string  `json:"motivations,omitempty"`
	Fears            []string  `json:"fears,omitempty"`
	WorldID          string    `json:"world_id,omitempty"`
	ProjectID        string    `json:"project_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Faction is a group living inside a World.
type Faction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// World is a setting characters can live in.
type World struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Genre         string    `json:"genre,omitempty"`
	Tone          string    `json:"tone,omitempty"`
	Description   string    `json:"description,omitempty"`
	OverviewProse string    `json:"overview_prose,omitempty"`
	HistoryProse  string    `json:"history_prose,omitempty"`
	MagicSystem   string    `json:"magic_system,omitempty"`
	Factions      []Faction `json:"factions,omitempty"`
	ProjectID     string    `json:"project_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Project is a story, campaign or book that gathers characters and worlds.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Genre       string    `json:"genre,omitempty"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
