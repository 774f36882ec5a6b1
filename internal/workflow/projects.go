package workflow

import (
	"context"
	"strings"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
)

// Config returns the active configuration.
func (m *Manager) Config() *config.Config { return m.cfg }

// CreateProject registers a new active project.
func (m *Manager) CreateProject(ctx context.Context, name, description string) (*catalog.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, services.Wrap(services.ErrValidation, "workflow", "create project", "project name is required", nil)
	}
	project, err := m.store.CreateProject(ctx, name, description)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "create project", "insert project", err)
	}
	m.logger.Info("project created",
		logging.String("project_id", project.ID),
		logging.String("project_name", project.Name),
	)
	return project, nil
}

// GetProject loads one project.
func (m *Manager) GetProject(ctx context.Context, projectID string) (*catalog.Project, error) {
	project, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "get project", "load project", err)
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "get project", "project "+projectID+" does not exist", nil)
	}
	return project, nil
}

// ListProjects returns every project, newest first.
func (m *Manager) ListProjects(ctx context.Context) ([]*catalog.Project, error) {
	projects, err := m.store.ListProjects(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "list projects", "query projects", err)
	}
	if projects == nil {
		projects = []*catalog.Project{}
	}
	return projects, nil
}

// ArchiveProject stops a project from accepting new products.
func (m *Manager) ArchiveProject(ctx context.Context, projectID string) (*catalog.Project, error) {
	ok, err := m.store.ArchiveProject(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "archive project", "update project", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "archive project", "project "+projectID+" does not exist", nil)
	}
	return m.GetProject(ctx, projectID)
}

// ListProducts returns the products of an existing project.
func (m *Manager) ListProducts(ctx context.Context, projectID string) ([]*catalog.Product, error) {
	if _, err := m.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	products, err := m.store.ListProducts(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "list products", "query products", err)
	}
	if products == nil {
		products = []*catalog.Product{}
	}
	return products, nil
}
