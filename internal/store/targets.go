package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"curator/internal/catalog"
)

const targetColumns = "id, project_id, name, kind, config_json, last_publish_at, created_at"

// CreateTarget inserts a publish target.
func (s *Store) CreateTarget(ctx context.Context, projectID, name, kind string, cfg map[string]string) (*catalog.PublishTarget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("target name is required")
	}
	var configJSON any
	if len(cfg) > 0 {
		data, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("encode target config: %w", err)
		}
		configJSON = string(data)
	}
	now := s.now()
	target := &catalog.PublishTarget{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Kind:      kind,
		Config:    cloneConfig(cfg),
		CreatedAt: now,
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO publish_targets (id, project_id, name, kind, config_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		target.ID, projectID, name, kind, configJSON, formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert publish target: %w", err)
	}
	return target, nil
}

// GetTarget fetches a publish target by id.
func (s *Store) GetTarget(ctx context.Context, id string) (*catalog.PublishTarget, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+targetColumns+` FROM publish_targets WHERE id = ?`, id)
	target, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publish target: %w", err)
	}
	return target, nil
}

// ListTargets returns the publish targets of a project, newest first.
func (s *Store) ListTargets(ctx context.Context, projectID string) ([]*catalog.PublishTarget, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+targetColumns+` FROM publish_targets WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list publish targets: %w", err)
	}
	defer rows.Close()

	var targets []*catalog.PublishTarget
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

func cloneConfig(cfg map[string]string) map[string]string {
	if len(cfg) == 0 {
		return nil
	}
	out := make(map[string]string, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

func scanTarget(scanner interface{ Scan(dest ...any) error }) (*catalog.PublishTarget, error) {
	var (
		target         catalog.PublishTarget
		configRaw      sql.NullString
		lastPublishRaw sql.NullString
		createdRaw     string
	)
	if err := scanner.Scan(&target.ID, &target.ProjectID, &target.Name, &target.Kind, &configRaw, &lastPublishRaw, &createdRaw); err != nil {
		return nil, err
	}
	if configRaw.Valid && configRaw.String != "" {
		if err := json.Unmarshal([]byte(configRaw.String), &target.Config); err != nil {
			return nil, fmt.Errorf("decode target config: %w", err)
		}
	}
	target.LastPublishAt = parseNullableTime(lastPublishRaw)
	if created, err := parseTimeString(createdRaw); err == nil {
		target.CreatedAt = created
	}
	return &target, nil
}
