package model

import "time"

const DefaultColor = "#1976d2"

// Seed is the state used when nothing has been persisted yet.
func Seed(now time.Time) Snapshot {
	now = now.UTC()
	return Snapshot{
		Folders: []Folder{
			{ID: "1", Name: "Personal", Color: "#1976d2", IsDefault: true},
			{ID: "2", Name: "Work", Color: "#388e3c"},
		},
		TaskLists: []TaskList{
			{ID: "1", Name: "Today's Tasks", FolderID: "1", Color: "#1976d2", IsDefault: true},
			{ID: "2", Name: "Shopping List", FolderID: "1", Color: "#f57c00"},
			{ID: "3", Name: "Project Alpha", FolderID: "2", Color: "#388e3c"},
		},
		Tasks: []Task{
			{ID: "1", Title: "Buy groceries", Description: "Milk, eggs, bread", ListID: "1", CreatedAt: now},
			{ID: "2", Title: "Call dentist", Description: "Schedule appointment", ListID: "1", CreatedAt: now},
			{ID: "3", Title: "Review code", Description: "Check pull requests", Completed: true, ListID: "3", CreatedAt: now},
		},
		SelectedListID: "1",
	}
}
