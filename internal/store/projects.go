package store

import (
	"slices"
	"strings"
	"time"

	"focusboard/internal/model"
)

const maxTitleLen = 200

// NewProject holds the caller-supplied fields of a project. Empty enum fields
// take defaults (medium priority, work category, planning status).
type NewProject struct {
	Title         string
	Desc          string
	Description   string
	Estimate      string
	Priority      model.Priority
	Progress      int
	DueDate       *time.Time
	Tags          []string
	Budget        *float64
	TimeSpent     float64
	EstimatedTime float64
	Category      model.Category
	Status        model.Status
	DeployLink    *string
	Archived      bool
}

// ProjectPatch is a partial update. Nil fields are left unchanged; a nil Tags
// slice is "omitted" while an empty one clears the tags. DeployLink set to an
// empty string clears the link.
type ProjectPatch struct {
	Title         *string
	Desc          *string
	Description   *string
	Estimate      *string
	Priority      *model.Priority
	Progress      *int
	DueDate       *time.Time
	ClearDueDate  bool
	Tags          []string
	Budget        *float64
	ClearBudget   bool
	TimeSpent     *float64
	EstimatedTime *float64
	Category      *model.Category
	Status        *model.Status
	DeployLink    *string
	Archived      *bool
}

// AddProject validates in, assigns an id and timestamps, and inserts the
// project. It returns the new id.
func (s *Store) AddProject(in NewProject) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "", invalid("project title is required")
	}
	if len(in.Title) > maxTitleLen {
		return "", invalid("project title too long (max %d)", maxTitleLen)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Category == "" {
		in.Category = model.CategoryWork
	}
	if in.Status == "" {
		in.Status = model.StatusPlanning
	}
	if err := validateProjectEnums(in.Priority, in.Category, in.Status); err != nil {
		return "", err
	}

	var id string
	err := s.mutate(func(now time.Time) error {
		id = s.newID("p")
		tags := slices.Clone(in.Tags)
		if tags == nil {
			tags = []string{}
		}
		p := model.Project{
			ID:            id,
			Title:         in.Title,
			Desc:          in.Desc,
			Description:   in.Description,
			Estimate:      in.Estimate,
			Priority:      in.Priority,
			Progress:      model.ClampProgress(in.Progress),
			DueDate:       in.DueDate,
			Tags:          tags,
			Budget:        in.Budget,
			TimeSpent:     in.TimeSpent,
			EstimatedTime: in.EstimatedTime,
			Category:      in.Category,
			Status:        in.Status,
			DeployLink:    in.DeployLink,
			Archived:      in.Archived,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		s.state.Projects[id] = p.Clone()
		return nil
	})
	return id, err
}

func validateProjectEnums(p model.Priority, c model.Category, st model.Status) error {
	if !p.Valid() {
		return invalid("unknown priority %q", p)
	}
	if !c.Valid() {
		return invalid("unknown category %q", c)
	}
	if !st.Valid() {
		return invalid("unknown status %q", st)
	}
	return nil
}

// UpdateProject merges patch into the project and refreshes updatedAt.
func (s *Store) UpdateProject(id string, patch ProjectPatch) error {
	return s.mutate(func(now time.Time) error {
		p, ok := s.state.Projects[id]
		if !ok {
			return notFound("project", id)
		}
		if err := applyProjectPatch(&p, patch); err != nil {
			return err
		}
		p.UpdatedAt = now
		s.state.Projects[id] = p
		return nil
	})
}

func applyProjectPatch(p *model.Project, patch ProjectPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalid("project title is required")
		}
		p.Title = title
	}
	if patch.Desc != nil {
		p.Desc = *patch.Desc
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Estimate != nil {
		p.Estimate = *patch.Estimate
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return invalid("unknown priority %q", *patch.Priority)
		}
		p.Priority = *patch.Priority
	}
	if patch.Progress != nil {
		p.Progress = model.ClampProgress(*patch.Progress)
	}
	if patch.ClearDueDate {
		p.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		p.DueDate = &d
	}
	if patch.Tags != nil {
		p.Tags = slices.Clone(patch.Tags)
	}
	if patch.ClearBudget {
		p.Budget = nil
	} else if patch.Budget != nil {
		b := *patch.Budget
		p.Budget = &b
	}
	if patch.TimeSpent != nil {
		p.TimeSpent = *patch.TimeSpent
	}
	if patch.EstimatedTime != nil {
		p.EstimatedTime = *patch.EstimatedTime
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return invalid("unknown category %q", *patch.Category)
		}
		p.Category = *patch.Category
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return invalid("unknown status %q", *patch.Status)
		}
		p.Status = *patch.Status
	}
	if patch.DeployLink != nil {
		if *patch.DeployLink == "" {
			p.DeployLink = nil
		} else {
			l := *patch.DeployLink
			p.DeployLink = &l
		}
	}
	if patch.Archived != nil {
		p.Archived = *patch.Archived
	}
	return nil
}

// DeleteProject removes the project and every todo and resource that
// references it.
func (s *Store) DeleteProject(id string) error {
	return s.mutate(func(time.Time) error {
		if _, ok := s.state.Projects[id]; !ok {
			return notFound("project", id)
		}
		delete(s.state.Projects, id)
		for todoID, t := range s.state.Todos {
			if t.ProjectID == id {
				delete(s.state.Todos, todoID)
			}
		}
		for resID, r := range s.state.Resources {
			if r.ProjectID == id {
				delete(s.state.Resources, resID)
			}
		}
		return nil
	})
}

// Project returns a copy of the project with the given id.
func (s *Store) Project(id string) (model.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.Projects[id]
	if !ok {
		return model.Project{}, false
	}
	return p.Clone(), true
}

// Projects returns every project, archived included, oldest first.
func (s *Store) Projects() []model.Project {
	return s.filterProjects(func(model.Project) bool { return true })
}

// ProjectsByCategory lists the projects of one category. Archived projects
// are only included when includeArchived is set.
func (s *Store) ProjectsByCategory(category model.Category, includeArchived bool) []model.Project {
	return s.filterProjects(func(p model.Project) bool {
		if p.Category != category {
			return false
		}
		return includeArchived || !p.Archived
	})
}

func (s *Store) filterProjects(keep func(model.Project) bool) []model.Project {
	s.mu.RLock()
	out := make([]model.Project, 0, len(s.state.Projects))
	for _, p := range s.state.Projects {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Project) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}
