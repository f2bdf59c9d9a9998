package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// TaskwarriorImporter reads `task export` output, either a JSON array or
// one JSON object per line. Deleted tasks are dropped.
type TaskwarriorImporter struct{}

type taskwarriorTask struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Project     string `json:"project"`
	Priority    string `json:"priority"`
	Due         string `json:"due"`
}

const maxNDJSONLineBytes = 4 << 20

func (*TaskwarriorImporter) Name() string { return "taskwarrior" }

// Preview implements Importer.
func (*TaskwarriorImporter) Preview(r io.Reader) ([]PreviewTodo, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if first == '[' {
		return parseTaskwarriorArray(br)
	}
	return parseTaskwarriorLines(br)
}

// peekNonSpace skips leading whitespace and returns the next byte without
// consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}

func parseTaskwarriorArray(r io.Reader) ([]PreviewTodo, error) {
	dec := json.NewDecoder(r)
	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	} else if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("failed to parse JSON array: expected '['")
	}

	var todos []PreviewTodo
	for n := 1; dec.More(); n++ {
		var tw taskwarriorTask
		if err := dec.Decode(&tw); err != nil {
			return nil, fmt.Errorf("failed to decode task %d: %w", n, err)
		}
		if td, ok := tw.preview(); ok {
			todos = append(todos, td)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return todos, nil
}

func parseTaskwarriorLines(r io.Reader) ([]PreviewTodo, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxNDJSONLineBytes)

	var todos []PreviewTodo
	lineNo, objects := 0, 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		objects++
		var tw taskwarriorTask
		if err := json.Unmarshal(line, &tw); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNo, err)
		}
		if td, ok := tw.preview(); ok {
			todos = append(todos, td)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read NDJSON line %d: %w", lineNo+1, err)
	}
	if objects == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return todos, nil
}

func (tw taskwarriorTask) preview() (PreviewTodo, bool) {
	text := strings.TrimSpace(tw.Description)
	if tw.Status == "deleted" || text == "" {
		return PreviewTodo{}, false
	}
	return PreviewTodo{
		Text:     text,
		Project:  strings.TrimSpace(tw.Project),
		Priority: mapTaskwarriorPriority(tw.Priority),
		DueDate:  parseTaskwarriorDate(tw.Due),
		Done:     tw.Status == "completed",
	}, true
}

// mapTaskwarriorPriority maps H/M/L onto 1/3/5.
func mapTaskwarriorPriority(p string) int {
	switch strings.ToUpper(strings.TrimSpace(p)) {
	case "H":
		return 1
	case "M":
		return 3
	case "L":
		return 5
	default:
		return 0
	}
}

var taskwarriorDateLayouts = []string{
	"20060102T150405Z", // task export
	"20060102T150405",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTaskwarriorDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range taskwarriorDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			local := t.Local()
			return &local
		}
	}
	return nil
}
