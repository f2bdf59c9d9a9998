package store

import (
	"slices"
	"strings"
	"time"

	"focusboard/internal/model"
)

// NewResource holds the caller-supplied fields of a resource.
type NewResource struct {
	ProjectID string
	Title     string
	Link      string
	Type      string
}

// ResourcePatch is a partial update of a resource.
type ResourcePatch struct {
	ProjectID *string
	Title     *string
	Link      *string
	Type      *string
}

// AddResource attaches a link to a project and returns the new id.
func (s *Store) AddResource(in NewResource) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Link = strings.TrimSpace(in.Link)
	if in.Title == "" {
		return "", invalid("resource title is required")
	}
	if in.Link == "" {
		return "", invalid("resource link is required")
	}
	if strings.TrimSpace(in.ProjectID) == "" {
		return "", invalid("resource project is required")
	}

	var id string
	err := s.mutate(func(now time.Time) error {
		id = s.newID("r")
		s.state.Resources[id] = model.Resource{
			ID:        id,
			ProjectID: in.ProjectID,
			Title:     in.Title,
			Link:      in.Link,
			Type:      in.Type,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
	return id, err
}

// UpdateResource merges patch into the resource and refreshes updatedAt.
func (s *Store) UpdateResource(id string, patch ResourcePatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("resource title is required")
	}
	if patch.Link != nil && strings.TrimSpace(*patch.Link) == "" {
		return invalid("resource link is required")
	}
	return s.mutate(func(now time.Time) error {
		r, ok := s.state.Resources[id]
		if !ok {
			return notFound("resource", id)
		}
		if patch.ProjectID != nil {
			r.ProjectID = *patch.ProjectID
		}
		if patch.Title != nil {
			r.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Link != nil {
			r.Link = strings.TrimSpace(*patch.Link)
		}
		if patch.Type != nil {
			r.Type = *patch.Type
		}
		r.UpdatedAt = now
		s.state.Resources[id] = r
		return nil
	})
}

// DeleteResource removes a resource.
func (s *Store) DeleteResource(id string) error {
	return s.mutate(func(time.Time) error {
		if _, ok := s.state.Resources[id]; !ok {
			return notFound("resource", id)
		}
		delete(s.state.Resources, id)
		return nil
	})
}

// Resources returns every resource, oldest first.
func (s *Store) Resources() []model.Resource {
	return s.filterResources(func(model.Resource) bool { return true })
}

// ResourcesForProject lists the resources attached to projectID.
func (s *Store) ResourcesForProject(projectID string) []model.Resource {
	return s.filterResources(func(r model.Resource) bool { return r.ProjectID == projectID })
}

func (s *Store) filterResources(keep func(model.Resource) bool) []model.Resource {
	s.mu.RLock()
	out := make([]model.Resource, 0, len(s.state.Resources))
	for _, r := range s.state.Resources {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Resource) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}
