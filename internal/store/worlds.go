package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nidhogg/fived/internal/entity"
)

const worldColumns = `id, name, genre, tone, description, overview_prose,
	history_prose, magic_system, factions, COALESCE(project_id,''),
	created_at, updated_at`

// SaveWorld upserts a world. An empty ID is replaced with a new uuid.
func (s *Store) SaveWorld(ctx context.Context, w *entity.World) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	factions := w.Factions
	if factions == nil {
		factions = []entity.Faction{}
	}
	factionsJSON, err := json.Marshal(factions)
	if err != nil {
		return fmt.Errorf("marshal factions: %w", err)
	}

	now := time.Now()
	err = s.db.QueryRow(ctx, `
		INSERT INTO worlds (id, name, genre, tone, description, overview_prose,
			history_prose, magic_system, factions, project_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''), $11, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			genre = EXCLUDED.genre,
			tone = EXCLUDED.tone,
			description = EXCLUDED.description,
			overview_prose = EXCLUDED.overview_prose,
			history_prose = EXCLUDED.history_prose,
			magic_system = EXCLUDED.magic_system,
			factions = EXCLUDED.factions,
			project_id = EXCLUDED.project_id,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		w.ID, w.Name, w.Genre, w.Tone, w.Description, w.OverviewProse,
		w.HistoryProse, w.MagicSystem, factionsJSON, w.ProjectID, now,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save world %s: %w", w.ID, err)
	}
	return nil
}

// GetWorld retrieves a single world by ID.
func (s *Store) GetWorld(ctx context.Context, id string) (*entity.World, error) {
	row := s.db.QueryRow(ctx, `SELECT `+worldColumns+` FROM worlds WHERE id = $1`, id)
	w, err := scanWorld(row)
	if err != nil {
		return nil, notFound(err, "world", id)
	}
	return w, nil
}

// ListWorlds returns every world in creation order.
func (s *Store) ListWorlds(ctx context.Context) ([]entity.World, error) {
	return listWorlds(ctx, s.db)
}

func listWorlds(ctx context.Context, q querier) ([]entity.World, error) {
	rows, err := q.Query(ctx, `SELECT `+worldColumns+` FROM worlds ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	defer rows.Close()

	out := []entity.World{}
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, fmt.Errorf("scan world: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// DeleteWorld removes a world. Characters living there keep their other data
// and lose the world reference.
func (s *Store) DeleteWorld(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM worlds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete world %s: %w", id, err)
	}
	return affected(tag.RowsAffected(), "world", id)
}

func scanWorld(row pgx.Row) (*entity.World, error) {
	var w entity.World
	var factionsJSON []byte
	err := row.Scan(
		&w.ID, &w.Name, &w.Genre, &w.Tone, &w.Description, &w.OverviewProse,
		&w.HistoryProse, &w.MagicSystem, &factionsJSON, &w.ProjectID,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(factionsJSON) > 0 {
		if err := json.Unmarshal(factionsJSON, &w.Factions); err != nil {
			return nil, fmt.Errorf("decode factions for world %s: %w", w.ID, err)
		}
	}
	return &w, nil
}
