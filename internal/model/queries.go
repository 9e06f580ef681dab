package model

// TasksForList returns the tasks owned by listID in insertion order.
func (s Snapshot) TasksForList(listID string) []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.ListID == listID {
			out = append(out, t.clone())
		}
	}
	return out
}

// TaskListsForFolder returns the lists owned by folderID in insertion order.
func (s Snapshot) TaskListsForFolder(folderID string) []TaskList {
	var out []TaskList
	for _, l := range s.TaskLists {
		if l.FolderID == folderID {
			out = append(out, l)
		}
	}
	return out
}

// CurrentFolder resolves the selected folder, falling back to the folder
// that owns the selected list.
func (s Snapshot) CurrentFolder() (Folder, bool) {
	if s.SelectedFolderID != "" {
		return s.Folder(s.SelectedFolderID)
	}
	list, ok := s.CurrentList()
	if !ok {
		return Folder{}, false
	}
	return s.Folder(list.FolderID)
}

func (s Snapshot) CurrentList() (TaskList, bool) {
	if s.SelectedListID == "" {
		return TaskList{}, false
	}
	return s.TaskList(s.SelectedListID)
}

func (s Snapshot) Folder(id string) (Folder, bool) {
	for _, f := range s.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

func (s Snapshot) TaskList(id string) (TaskList, bool) {
	for _, l := range s.TaskLists {
		if l.ID == id {
			return l, true
		}
	}
	return TaskList{}, false
}

func (s Snapshot) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t.clone(), true
		}
	}
	return Task{}, false
}

// FolderOf returns the folder owning listID.
func (s Snapshot) FolderOf(listID string) (Folder, bool) {
	list, ok := s.TaskList(listID)
	if !ok {
		return Folder{}, false
	}
	return s.Folder(list.FolderID)
}

// TasksWithTag returns every task carrying tag, in insertion order.
func (s Snapshot) TasksWithTag(tag string) []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.HasTag(tag) {
			out = append(out, t.clone())
		}
	}
	return out
}

type Stats struct {
	Completed int
	Total     int
}

// Progress is the completed share in percent, 0 for an empty set.
func (st Stats) Progress() float64 {
	if st.Total == 0 {
		return 0
	}
	return float64(st.Completed) / float64(st.Total) * 100
}

func (s Snapshot) ListStats(listID string) Stats {
	var st Stats
	for _, t := range s.Tasks {
		if t.ListID != listID {
			continue
		}
		st.Total++
		if t.Completed {
			st.Completed++
		}
	}
	return st
}

func (s Snapshot) FolderStats(folderID string) Stats {
	var st Stats
	for _, l := range s.TaskListsForFolder(folderID) {
		ls := s.ListStats(l.ID)
		st.Completed += ls.Completed
		st.Total += ls.Total
	}
	return st
}
