package store

import "tasktree/internal/model"

// Reduce applies a to s and returns the next snapshot. It never mutates s:
// touched collections are rebuilt and untouched ones are shared. Actions
// naming an unknown id return s unchanged. Add actions must already carry
// their id (Store.Dispatch stamps them).
func Reduce(s model.Snapshot, a Action) model.Snapshot {
	switch a := a.(type) {
	case SetSelectedList:
		s.SelectedListID = a.ListID
		return s

	case SetSelectedFolder:
		s.SelectedFolderID = a.FolderID
		return s

	case AddFolder:
		f := model.Folder{ID: a.ID, Name: a.Name, Color: colorOrDefault(a.Color)}
		s.Folders = appendFolder(s.Folders, f)
		return s

	case UpdateFolder:
		idx := indexFolder(s.Folders, a.ID)
		if idx < 0 {
			return s
		}
		folders := append([]model.Folder(nil), s.Folders...)
		folders[idx] = mergeFolder(folders[idx], a.Patch)
		s.Folders = folders
		return s

	case DeleteFolder:
		return deleteFolder(s, a.ID)

	case AddTaskList:
		l := model.TaskList{ID: a.ID, Name: a.Name, FolderID: a.FolderID, Color: colorOrDefault(a.Color)}
		lists := make([]model.TaskList, 0, len(s.TaskLists)+1)
		s.TaskLists = append(append(lists, s.TaskLists...), l)
		return s

	case UpdateTaskList:
		idx := indexList(s.TaskLists, a.ID)
		if idx < 0 {
			return s
		}
		lists := append([]model.TaskList(nil), s.TaskLists...)
		lists[idx] = mergeList(lists[idx], a.Patch)
		s.TaskLists = lists
		return s

	case DeleteTaskList:
		return deleteTaskList(s, a.ID)

	case AddTask:
		t := model.Task{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			ListID:      a.ListID,
			CreatedAt:   a.CreatedAt,
			Priority:    a.Priority,
			Tags:        model.NormalizeTags(a.Tags),
		}
		if a.DueDate != nil {
			d := *a.DueDate
			t.DueDate = &d
		}
		tasks := make([]model.Task, 0, len(s.Tasks)+1)
		s.Tasks = append(append(tasks, s.Tasks...), t)
		return s

	case UpdateTask:
		return mapTask(s, a.ID, func(t model.Task) model.Task { return mergeTask(t, a.Patch) })

	case DeleteTask:
		if indexTask(s.Tasks, a.ID) < 0 {
			return s
		}
		s.Tasks = filterTasks(s.Tasks, func(t model.Task) bool { return t.ID != a.ID })
		return s

	case ToggleTask:
		return mapTask(s, a.ID, func(t model.Task) model.Task {
			t.Completed = !t.Completed
			return t
		})

	case LoadData:
		return loadData(s, a.Patch)
	}
	return s
}

func deleteFolder(s model.Snapshot, id string) model.Snapshot {
	if indexFolder(s.Folders, id) < 0 {
		return s
	}
	removed := make(map[string]struct{})
	lists := make([]model.TaskList, 0, len(s.TaskLists))
	for _, l := range s.TaskLists {
		if l.FolderID == id {
			removed[l.ID] = struct{}{}
			continue
		}
		lists = append(lists, l)
	}

	folders := make([]model.Folder, 0, len(s.Folders))
	for _, f := range s.Folders {
		if f.ID != id {
			folders = append(folders, f)
		}
	}

	s.Folders = folders
	s.TaskLists = lists
	s.Tasks = filterTasks(s.Tasks, func(t model.Task) bool {
		_, gone := removed[t.ListID]
		return !gone
	})
	if s.SelectedFolderID == id {
		s.SelectedFolderID = ""
	}
	if _, gone := removed[s.SelectedListID]; gone {
		s.SelectedListID = firstListID(lists)
	}
	return s
}

func deleteTaskList(s model.Snapshot, id string) model.Snapshot {
	if indexList(s.TaskLists, id) < 0 {
		return s
	}
	lists := make([]model.TaskList, 0, len(s.TaskLists))
	for _, l := range s.TaskLists {
		if l.ID != id {
			lists = append(lists, l)
		}
	}
	s.TaskLists = lists
	s.Tasks = filterTasks(s.Tasks, func(t model.Task) bool { return t.ListID != id })
	if s.SelectedListID == id {
		s.SelectedListID = firstListID(lists)
	}
	return s
}

func loadData(s model.Snapshot, p SnapshotPatch) model.Snapshot {
	if p.Folders != nil {
		s.Folders = append([]model.Folder{}, (*p.Folders)...)
	}
	if p.TaskLists != nil {
		s.TaskLists = append([]model.TaskList{}, (*p.TaskLists)...)
	}
	if p.Tasks != nil {
		tasks := make([]model.Task, len(*p.Tasks))
		for i, t := range *p.Tasks {
			t.Tags = model.NormalizeTags(t.Tags)
			if t.DueDate != nil {
				d := *t.DueDate
				t.DueDate = &d
			}
			tasks[i] = t
		}
		s.Tasks = tasks
	}
	if p.SelectedListID != nil {
		s.SelectedListID = *p.SelectedListID
	}
	if p.SelectedFolderID != nil {
		s.SelectedFolderID = *p.SelectedFolderID
	}
	return s
}

func mapTask(s model.Snapshot, id string, fn func(model.Task) model.Task) model.Snapshot {
	idx := indexTask(s.Tasks, id)
	if idx < 0 {
		return s
	}
	tasks := append([]model.Task(nil), s.Tasks...)
	tasks[idx] = fn(tasks[idx])
	s.Tasks = tasks
	return s
}

func mergeFolder(f model.Folder, p FolderPatch) model.Folder {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Color != nil {
		f.Color = *p.Color
	}
	if p.IsDefault != nil {
		f.IsDefault = *p.IsDefault
	}
	return f
}

func mergeList(l model.TaskList, p TaskListPatch) model.TaskList {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.FolderID != nil {
		l.FolderID = *p.FolderID
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.IsDefault != nil {
		l.IsDefault = *p.IsDefault
	}
	return l
}

func mergeTask(t model.Task, p TaskPatch) model.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ListID != nil {
		t.ListID = *p.ListID
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = model.NormalizeTags(*p.Tags)
	}
	return t
}

func appendFolder(folders []model.Folder, f model.Folder) []model.Folder {
	out := make([]model.Folder, 0, len(folders)+1)
	return append(append(out, folders...), f)
}

func filterTasks(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func indexFolder(folders []model.Folder, id string) int {
	for i, f := range folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func indexList(lists []model.TaskList, id string) int {
	for i, l := range lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexTask(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func firstListID(lists []model.TaskList) string {
	if len(lists) == 0 {
		return ""
	}
	return lists[0].ID
}

func colorOrDefault(c string) string {
	if c == "" {
		return model.DefaultColor
	}
	return c
}
