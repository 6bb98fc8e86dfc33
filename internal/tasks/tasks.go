// Package tasks loads the migration worklist from the planning CSV.
package tasks

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/folders"
)

// Task is one page to migrate.
type Task struct {
	SourceURL             string
	Title                 string
	Hierarchy             []string
	DestinationIdentifier string
	PageType              string
	Visibility            string
	ColumnLayout          string
	MenuTitle             string
	Category              string
}

// column order of the planning sheet export.
const (
	colSourceURL = iota
	colTitle
	colHierarchy
	colDestination
	colPageType
	colVisibility
	colColumnLayout
	colMenuTitle
	colCategory
	minColumns = colHierarchy + 1
)

// LoadCSV reads tasks from a planning CSV file. The first row is the
// header. Rows without a source URL or title are rejected with their
// line number.
func LoadCSV(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tasks file: %w", err)
	}
	defer f.Close()

	tasks, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

func readCSV(r io.Reader) ([]Task, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var tasks []Task
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		if line == 1 {
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		task, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks found")
	}
	return tasks, nil
}

func parseRecord(record []string) (Task, error) {
	if len(record) < minColumns {
		return Task{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(record))
	}
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	task := Task{
		SourceURL:             get(colSourceURL),
		Title:                 get(colTitle),
		Hierarchy:             folders.SplitHierarchy(get(colHierarchy)),
		DestinationIdentifier: get(colDestination),
		PageType:              get(colPageType),
		Visibility:            get(colVisibility),
		ColumnLayout:          get(colColumnLayout),
		MenuTitle:             get(colMenuTitle),
		Category:              get(colCategory),
	}
	if task.SourceURL == "" {
		return Task{}, fmt.Errorf("missing source URL")
	}
	if !strings.HasPrefix(task.SourceURL, "http://") && !strings.HasPrefix(task.SourceURL, "https://") {
		return Task{}, fmt.Errorf("source URL %q is not absolute", task.SourceURL)
	}
	if task.Title == "" {
		return Task{}, fmt.Errorf("missing title")
	}
	return task, nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
