package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nidhogg/fived/internal/entity"
)

const characterColumns = `id, name, genre, role, core_concept, origin,
	backstory_prose, personality_prose, arc_prose, motivations, fears,
	COALESCE(world_id,''), COALESCE(project_id,''), created_at, updated_at`

// SaveCharacter upserts a character. An empty ID is replaced with a new uuid.
func (s *Store) SaveCharacter(ctx context.Context, c *entity.Character) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	err := s.db.QueryRow(ctx, `
		INSERT INTO characters (id, name, genre, role, core_concept, origin,
			backstory_prose, personality_prose, arc_prose, motivations, fears,
			world_id, project_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			NULLIF($12,''), NULLIF($13,''), $14, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			genre = EXCLUDED.genre,
			role = EXCLUDED.role,
			core_concept = EXCLUDED.core_concept,
			origin = EXCLUDED.origin,
			backstory_prose = EXCLUDED.backstory_prose,
			personality_prose = EXCLUDED.personality_prose,
			arc_prose = EXCLUDED.arc_prose,
			motivations = EXCLUDED.motivations,
			fears = EXCLUDED.fears,
			world_id = EXCLUDED.world_id,
			project_id = EXCLUDED.project_id,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Genre, c.Role, c.CoreConcept, c.Origin,
		c.BackstoryProse, c.PersonalityProse, c.ArcProse,
		orEmpty(c.Motivations), orEmpty(c.Fears),
		c.WorldID, c.ProjectID, now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	return nil
}

// GetCharacter retrieves a single character by ID.
func (s *Store) GetCharacter(ctx context.Context, id string) (*entity.Character, error) {
	row := s.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		return nil, notFound(err, "character", id)
	}
	return c, nil
}

// ListCharacters returns every character in creation order.
func (s *Store) ListCharacters(ctx context.Context) ([]entity.Character, error) {
	return listCharacters(ctx, s.db)
}

func listCharacters(ctx context.Context, q querier) ([]entity.Character, error) {
	rows, err := q.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	out := []entity.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCharacter removes a character.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	return affected(tag.RowsAffected(), "character", id)
}

func scanCharacter(row pgx.Row) (*entity.Character, error) {
	var c entity.Character
	err := row.Scan(
		&c.ID, &c.Name, &c.Genre, &c.Role, &c.CoreConcept, &c.Origin,
		&c.BackstoryProse, &c.PersonalityProse, &c.ArcProse,
		&c.Motivations, &c.Fears,
		&c.WorldID, &c.ProjectID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
