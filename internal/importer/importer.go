// Package importer brings todos over from other tools (Todoist CSV and
// Taskwarrior JSON exports).
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/store"
)

// Target is where imported todos land. *store.Store and store.Lenient both
// satisfy it.
type Target interface {
	store.Mutator
	Projects() []model.Project
}

// Options tune an import.
type Options struct {
	// ProjectID sends every todo to this project instead of resolving the
	// project names found in the export.
	ProjectID string

	// SkipCompleted drops todos that were already done.
	SkipCompleted bool
}

// ImportResult counts what an import did.
type ImportResult struct {
	Imported        int
	Skipped         int
	ProjectsCreated int
	Errors          []string
}

// PreviewTodo is one parsed todo before it is written.
type PreviewTodo struct {
	Text     string
	Project  string
	Priority int // 1 (highest) to 5; 0 means the store default
	DueDate  *time.Time
	Done     bool
}

// Importer parses one export format.
type Importer interface {
	// Preview parses r without touching any store.
	Preview(r io.Reader) ([]PreviewTodo, error)

	// Name returns the format name ("todoist", "taskwarrior").
	Name() string
}

// GetImporter returns the importer for format, or nil.
func GetImporter(format string) Importer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "todoist":
		return &TodoistImporter{}
	case "taskwarrior":
		return &TaskwarriorImporter{}
	default:
		return nil
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []string {
	return []string{"todoist", "taskwarrior"}
}

// Import parses r with imp and adds every todo to dst. Project names are
// matched case-insensitively against existing project titles; unknown names
// become new projects. Per-todo failures are collected in the result.
func Import(imp Importer, r io.Reader, dst Target, opts Options) (*ImportResult, error) {
	todos, err := imp.Preview(r)
	if err != nil {
		return nil, err
	}

	if opts.ProjectID != "" && opts.ProjectID != model.UnassignedProjectID {
		if !hasProject(dst, opts.ProjectID) {
			return nil, fmt.Errorf("project %q: %w", opts.ProjectID, store.ErrNotFound)
		}
	}

	res := &ImportResult{}
	projects := projectIndex(dst)

	for _, td := range todos {
		if td.Done && opts.SkipCompleted {
			res.Skipped++
			continue
		}

		projectID := opts.ProjectID
		if projectID == "" && td.Project != "" {
			key := strings.ToLower(td.Project)
			id, ok := projects[key]
			if !ok {
				id, err = dst.AddProject(store.NewProject{Title: td.Project})
				if err != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("project %s: %v", td.Project, err))
					continue
				}
				projects[key] = id
				res.ProjectsCreated++
			}
			projectID = id
		}

		id, err := dst.AddTodo(store.NewTodo{
			ProjectID: projectID,
			Text:      td.Text,
			Priority:  td.Priority,
			DueDate:   td.DueDate,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", td.Text, err))
			continue
		}
		if td.Done {
			done := true
			if err := dst.UpdateTodo(id, store.TodoPatch{Completed: &done}); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("failed to mark %s as complete: %v", td.Text, err))
			}
		}
		res.Imported++
	}
	return res, nil
}

func projectIndex(dst Target) map[string]string {
	idx := make(map[string]string)
	for _, p := range dst.Projects() {
		key := strings.ToLower(p.Title)
		if _, dup := idx[key]; !dup {
			idx[key] = p.ID
		}
	}
	return idx
}

func hasProject(dst Target, id string) bool {
	for _, p := range dst.Projects() {
		if p.ID == id {
			return true
		}
	}
	return false
}
