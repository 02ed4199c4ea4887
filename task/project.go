package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/storage"
)

// Project is a learned project label. Tasks reference projects by name only.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Projects returns every known project in the order they were learned.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	projects, err := storage.LoadAll[Project](ctx, s.adapter, storage.CollectionProjects)
	if err != nil {
		s.logger.Error("load projects", zap.Error(err))
		return nil, err
	}
	return projects, nil
}

// ProjectNames returns the names of every known project.
func (s *Store) ProjectNames(ctx context.Context) ([]string, error) {
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return names, nil
}

// AddProject records a project name. Names are unique case-insensitively; an
// existing project with the same name is returned unchanged.
func (s *Store) AddProject(ctx context.Context, name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Name, name) {
			return &projects[i], nil
		}
	}
	p := Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}
	projects = append(projects, p)
	if err := storage.SaveAll(ctx, s.adapter, storage.CollectionProjects, projects); err != nil {
		s.logger.Error("save projects", zap.Error(err))
		return nil, err
	}
	return &p, nil
}
