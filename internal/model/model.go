// Package model holds the folder/list/task entities and the pure queries over
// a Snapshot.
package model

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for display; unset sorts below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

type TaskList struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FolderID  string `json:"folderId"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	ListID      string    `json:"listId"`
	CreatedAt   time.Time `json:"createdAt"`
	DueDate     *Date     `json:"dueDate"`
	Priority    Priority  `json:"priority,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

func (t Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags, drops empties and keeps the first occurrence of
// each duplicate. It returns nil for an empty result.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseTags splits a comma separated tag string.
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// Snapshot is the complete state of the store. Selection ids are empty when
// nothing is selected.
type Snapshot struct {
	Folders          []Folder
	TaskLists        []TaskList
	Tasks            []Task
	SelectedListID   string
	SelectedFolderID string
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Folders != nil {
		out.Folders = append([]Folder(nil), s.Folders...)
	}
	if s.TaskLists != nil {
		out.TaskLists = append([]TaskList(nil), s.TaskLists...)
	}
	if s.Tasks != nil {
		out.Tasks = make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			out.Tasks[i] = t.clone()
		}
	}
	return out
}

func (t Task) clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
