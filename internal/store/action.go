package store

import (
	"time"

	"tasktree/internal/model"
)

// Action is one of the mutation variants below. The set is closed: only
// types in this package implement it.
type Action interface {
	Kind() string
	action()
}

type SetSelectedList struct{ ListID string }

type SetSelectedFolder struct{ FolderID string }

// AddFolder appends a folder. ID is assigned by the Store when empty.
type AddFolder struct {
	ID    string
	Name  string
	Color string
}

type FolderPatch struct {
	Name      *string
	Color     *string
	IsDefault *bool
}

type UpdateFolder struct {
	ID    string
	Patch FolderPatch
}

type DeleteFolder struct{ ID string }

// AddTaskList appends a list. ID is assigned by the Store when empty.
type AddTaskList struct {
	ID       string
	Name     string
	FolderID string
	Color    string
}

type TaskListPatch struct {
	Name      *string
	FolderID  *string
	Color     *string
	IsDefault *bool
}

type UpdateTaskList struct {
	ID    string
	Patch TaskListPatch
}

type DeleteTaskList struct{ ID string }

// AddTask appends an open task. ID and CreatedAt are assigned by the Store
// when zero.
type AddTask struct {
	ID          string
	Title       string
	Description string
	DueDate     *model.Date
	ListID      string
	Priority    model.Priority
	Tags        []string
	CreatedAt   time.Time
}

// TaskPatch carries the fields to merge into a task. ClearDueDate removes
// the due date; DueDate is ignored when it is set.
type TaskPatch struct {
	Title        *string
	Description  *string
	Completed    *bool
	ListID       *string
	DueDate      *model.Date
	ClearDueDate bool
	Priority     *model.Priority
	Tags         *[]string
}

type UpdateTask struct {
	ID    string
	Patch TaskPatch
}

type DeleteTask struct{ ID string }

type ToggleTask struct{ ID string }

// SnapshotPatch is a full or partial snapshot. Nil fields are left alone; a
// non-nil selection pointer to "" clears the selection.
type SnapshotPatch struct {
	Folders          *[]model.Folder
	TaskLists        *[]model.TaskList
	Tasks            *[]model.Task
	SelectedListID   *string
	SelectedFolderID *string
}

// PatchOf returns a patch that replaces every field with s.
func PatchOf(s model.Snapshot) SnapshotPatch {
	s = s.Clone()
	return SnapshotPatch{
		Folders:          &s.Folders,
		TaskLists:        &s.TaskLists,
		Tasks:            &s.Tasks,
		SelectedListID:   &s.SelectedListID,
		SelectedFolderID: &s.SelectedFolderID,
	}
}

type LoadData struct{ Patch SnapshotPatch }

func (SetSelectedList) Kind() string   { return "SetSelectedList" }
func (SetSelectedFolder) Kind() string { return "SetSelectedFolder" }
func (AddFolder) Kind() string         { return "AddFolder" }
func (UpdateFolder) Kind() string      { return "UpdateFolder" }
func (DeleteFolder) Kind() string      { return "DeleteFolder" }
func (AddTaskList) Kind() string       { return "AddTaskList" }
func (UpdateTaskList) Kind() string    { return "UpdateTaskList" }
func (DeleteTaskList) Kind() string    { return "DeleteTaskList" }
func (AddTask) Kind() string           { return "AddTask" }
func (UpdateTask) Kind() string        { return "UpdateTask" }
func (DeleteTask) Kind() string        { return "DeleteTask" }
func (ToggleTask) Kind() string        { return "ToggleTask" }
func (LoadData) Kind() string          { return "LoadData" }

func (SetSelectedList) action()   {}
func (SetSelectedFolder) action() {}
func (AddFolder) action()         {}
func (UpdateFolder) action()      {}
func (DeleteFolder) action()      {}
func (AddTaskList) action()       {}
func (UpdateTaskList) action()    {}
func (DeleteTaskList) action()    {}
func (AddTask) action()           {}
func (UpdateTask) action()        {}
func (DeleteTask) action()        {}
func (ToggleTask) action()        {}
func (LoadData) action()          {}
