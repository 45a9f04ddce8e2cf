package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nidhogg/fived/internal/entity"
)

const projectColumns = `id, name, genre, description, summary, created_at, updated_at`

// SaveProject upserts a project. An empty ID is replaced with a new uuid.
func (s *Store) SaveProject(ctx context.Context, p *entity.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	err := s.db.QueryRow(ctx, `
		INSERT INTO projects (id, name, genre, description, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			genre = EXCLUDED.genre,
			description = EXCLUDED.description,
			summary = EXCLUDED.summary,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Genre, p.Description, p.Summary, now,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a single project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

// ListProjects returns every project in creation order.
func (s *Store) ListProjects(ctx context.Context) ([]entity.Project, error) {
	return listProjects(ctx, s.db)
}

func listProjects(ctx context.Context, q querier) ([]entity.Project, error) {
	rows, err := q.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []entity.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return affected(tag.RowsAffected(), "project", id)
}

func scanProject(row pgx.Row) (*entity.Project, error) {
	var p entity.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Genre, &p.Description, &p.Summary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
