package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nidhogg/fived/internal/entity"
)

// Entities is the persistence surface shared by Store and Memory.
type Entities interface {
	SaveCharacter(ctx context.Context, c *entity.Character) error
	GetCharacter(ctx context.Context, id string) (*entity.Character, error)
	ListCharacters(ctx context.Context) ([]entity.Character, error)
	DeleteCharacter(ctx context.Context, id string) error

	SaveWorld(ctx context.Context, w *entity.World) error
	GetWorld(ctx context.Context, id string) (*entity.World, error)
	ListWorlds(ctx context.Context) ([]entity.World, error)
	DeleteWorld(ctx context.Context, id string) error

	SaveProject(ctx context.Context, p *entity.Project) error
	GetProject(ctx context.Context, id string) (*entity.Project, error)
	ListProjects(ctx context.Context) ([]entity.Project, error)
	DeleteProject(ctx context.Context, id string) error

	Snapshot(ctx context.Context) (*entity.Snapshot, error)
	LinkCharacterToWorld(ctx context.Context, characterID, worldID string) error
	AddCharacterToProject(ctx context.Context, characterID, projectID string) error
	AddWorldToProject(ctx context.Context, worldID, projectID string) error
}

var (
	_ Entities = (*Store)(nil)
	_ Entities = (*Memory)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Snapshot reads all three collections inside one read-only repeatable-read
// transaction so the suggestion engine sees a consistent view.
func (s *Store) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	chars, err := listCharacters(ctx, tx)
	if err != nil {
		return nil, err
	}
	worlds, err := listWorlds(ctx, tx)
	if err != nil {
		return nil, err
	}
	projects, err := listProjects(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &entity.Snapshot{Characters: chars, Worlds: worlds, Projects: projects}, nil
}

// LinkCharacterToWorld sets the character's world. Both ids must exist.
func (s *Store) LinkCharacterToWorld(ctx context.Context, characterID, worldID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE characters SET world_id = $2, updated_at = NOW()
		WHERE id = $1 AND EXISTS (SELECT 1 FROM worlds WHERE id = $2)`,
		characterID, worldID)
	if err != nil {
		return fmt.Errorf("link character %s to world %s: %w", characterID, worldID, err)
	}
	return affected(tag.RowsAffected(), "character/world", characterID+"/"+worldID)
}

// AddCharacterToProject sets the character's project. Both ids must exist.
func (s *Store) AddCharacterToProject(ctx context.Context, characterID, projectID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE characters SET project_id = $2, updated_at = NOW()
		WHERE id = $1 AND EXISTS (SELECT 1 FROM projects WHERE id = $2)`,
		characterID, projectID)
	if err != nil {
		return fmt.Errorf("add character %s to project %s: %w", characterID, projectID, err)
	}
	return affected(tag.RowsAffected(), "character/project", characterID+"/"+projectID)
}

// AddWorldToProject sets the world's project. Both ids must exist.
func (s *Store) AddWorldToProject(ctx context.Context, worldID, projectID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE worlds SET project_id = $2, updated_at = NOW()
		WHERE id = $1 AND EXISTS (SELECT 1 FROM projects WHERE id = $2)`,
		worldID, projectID)
	if err != nil {
		return fmt.Errorf("add world %s to project %s: %w", worldID, projectID, err)
	}
	return affected(tag.RowsAffected(), "world/project", worldID+"/"+projectID)
}
