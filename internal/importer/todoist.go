package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// TodoistImporter reads Todoist CSV exports (TYPE, CONTENT, PRIORITY, DATE
// and optionally PROJECT columns). Only "task" rows are imported.
type TodoistImporter struct{}

func (*TodoistImporter) Name() string { return "todoist" }

// Preview implements Importer.
func (*TodoistImporter) Preview(r io.Reader) ([]PreviewTodo, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff") // UTF-8 BOM
		}
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"TYPE", "CONTENT"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	field := func(rec []string, col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	var todos []PreviewTodo
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if !strings.EqualFold(field(rec, "TYPE"), "task") {
			continue
		}
		text := field(rec, "CONTENT")
		if text == "" {
			continue
		}
		todos = append(todos, PreviewTodo{
			Text:     text,
			Project:  field(rec, "PROJECT"),
			Priority: mapTodoistPriority(field(rec, "PRIORITY")),
			DueDate:  parseTodoistDate(field(rec, "DATE")),
		})
	}
	return todos, nil
}

// mapTodoistPriority maps Todoist p1..p4 onto 1..4 of the 1-5 scale; anything
// else gets the store default.
func mapTodoistPriority(p string) int {
	switch strings.TrimSpace(p) {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	default:
		return 0
	}
}

var todoistDateLayouts = []string{
	"2006-01-02",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"01/02/2006",
}

func parseTodoistDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range todoistDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
