package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"curator/internal/catalog"
)

const projectColumns = "id, name, description, status, created_at, updated_at"

// CreateProject inserts a new active project.
func (s *Store) CreateProject(ctx context.Context, name, description string) (*catalog.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project name is required")
	}
	now := s.now()
	project := &catalog.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Status:      catalog.ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO projects (id, name, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, nullableString(project.Description), string(project.Status),
		formatTime(now), formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*catalog.Project, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]*catalog.Project, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*catalog.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// ArchiveProject marks a project archived. It reports false when no such project exists.
func (s *Store) ArchiveProject(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(catalog.ProjectArchived), formatTime(s.now()), id)
	if err != nil {
		return false, fmt.Errorf("archive project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanProject(scanner interface{ Scan(dest ...any) error }) (*catalog.Project, error) {
	var (
		project     catalog.Project
		description sql.NullString
		status      string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&project.ID, &project.Name, &description, &status, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	project.Description = description.String
	project.Status = catalog.ProjectStatus(status)
	if created, err := parseTimeString(createdRaw); err == nil {
		project.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		project.UpdatedAt = updated
	}
	return &project, nil
}
