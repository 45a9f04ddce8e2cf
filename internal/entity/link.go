package entity

// LinkKind names one of the three supported pairings.
type LinkKind string

const (
	KindCharacterWorld   LinkKind = "character_world"
	KindCharacterProject LinkKind = "character_project"
	KindWorldProject     LinkKind = "world_project"
)

// Link is a directed association from a character or world to a world or project.
type Link struct {
	SourceID   string `json:"source_id"`
	SourceType Type   `json:"source_type"`
	TargetID   string `json:"target_id"`
	TargetType Type   `json:"target_type"`
}

// Kind reports the pairing this link represents, or "" if the pair is unsupported.
func (l Link) Kind() LinkKind {
	switch {
	case l.SourceType == TypeCharacter && l.TargetType == TypeWorld:
		return KindCharacterWorld
	case l.SourceType == TypeCharacter && l.TargetType == TypeProject:
		return KindCharacterProject
	case l.SourceType == TypeWorld && l.TargetType == TypeProject:
		return KindWorldProject
	}
	return ""
}

// Snapshot is a read-only view of every entity collection at one point in time.
type Snapshot struct {
	Characters []Character `json:"characters"`
	Worlds     []World     `json:"worlds"`
	Projects   []Project   `json:"projects"`
}
