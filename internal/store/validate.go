package store

import (
	"strings"

	"tasktree/internal/model"
)

// Validate checks the caller-side rules the reducer does not enforce:
// non-empty names and titles, existing parent ids and known priorities.
// LoadData is checked on the merged result: every list needs an existing
// folder, every task an existing list, and ids must be unique.
// It returns a *ValidationError (matching ErrValidation) or nil.
func Validate(s model.Snapshot, a Action) error {
	var problems []string
	blank := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, field+" is empty")
		}
	}
	folder := func(id string) {
		if _, ok := s.Folder(id); !ok {
			problems = append(problems, "unknown folder "+quote(id))
		}
	}
	list := func(id string) {
		if _, ok := s.TaskList(id); !ok {
			problems = append(problems, "unknown list "+quote(id))
		}
	}
	priority := func(p model.Priority) {
		if !p.Valid() {
			problems = append(problems, "unknown priority "+quote(string(p)))
		}
	}

	switch a := a.(type) {
	case AddFolder:
		blank("name", a.Name)
	case UpdateFolder:
		if a.Patch.Name != nil {
			blank("name", *a.Patch.Name)
		}
	case AddTaskList:
		blank("name", a.Name)
		folder(a.FolderID)
	case UpdateTaskList:
		if a.Patch.Name != nil {
			blank("name", *a.Patch.Name)
		}
		if a.Patch.FolderID != nil {
			folder(*a.Patch.FolderID)
		}
	case AddTask:
		blank("title", a.Title)
		list(a.ListID)
		priority(a.Priority)
	case UpdateTask:
		if a.Patch.Title != nil {
			blank("title", *a.Patch.Title)
		}
		if a.Patch.ListID != nil {
			list(*a.Patch.ListID)
		}
		if a.Patch.Priority != nil {
			priority(*a.Patch.Priority)
		}
	case LoadData:
		problems = append(problems, referenceProblems(Reduce(s, a))...)
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Action: a.Kind(), Problems: problems}
}

func referenceProblems(s model.Snapshot) []string {
	var problems []string
	folders := make(map[string]struct{}, len(s.Folders))
	for _, f := range s.Folders {
		if _, dup := folders[f.ID]; dup {
			problems = append(problems, "duplicate folder id "+quote(f.ID))
		}
		folders[f.ID] = struct{}{}
	}
	lists := make(map[string]struct{}, len(s.TaskLists))
	for _, l := range s.TaskLists {
		if _, dup := lists[l.ID]; dup {
			problems = append(problems, "duplicate list id "+quote(l.ID))
		}
		lists[l.ID] = struct{}{}
		if _, ok := folders[l.FolderID]; !ok {
			problems = append(problems, "list "+quote(l.ID)+" has unknown folder "+quote(l.FolderID))
		}
	}
	tasks := make(map[string]struct{}, len(s.Tasks))
	for _, t := range s.Tasks {
		if _, dup := tasks[t.ID]; dup {
			problems = append(problems, "duplicate task id "+quote(t.ID))
		}
		tasks[t.ID] = struct{}{}
		if _, ok := lists[t.ListID]; !ok {
			problems = append(problems, "task "+quote(t.ID)+" has unknown list "+quote(t.ListID))
		}
	}
	return problems
}

func quote(s string) string {
	return `"` + s + `"`
}
