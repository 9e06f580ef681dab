package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tasktree/internal/model"
	"tasktree/internal/store"
)

type formKind int

const (
	formAddFolder formKind = iota
	formAddList
	formRename
	formAddTask
	formEditTask
)

// formState is a multi-field editor driven by the single text input.
type formState struct {
	kind       formKind
	target     string
	targetKind navKind
	labels     []string
	values     []string
	index      int
}

const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldTags
)

func newNameForm(kind formKind, target string, targetKind navKind, name string) *formState {
	return &formState{
		kind:       kind,
		target:     target,
		targetKind: targetKind,
		labels:     []string{"name"},
		values:     []string{name},
	}
}

func newTaskForm(kind formKind, target string, t model.Task) *formState {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	return &formState{
		kind:   kind,
		target: target,
		labels: []string{"title", "description", "due date (YYYY-MM-DD)", "priority (low/medium/high)", "tags (comma separated)"},
		values: []string{t.Title, t.Description, due, string(t.Priority), strings.Join(t.Tags, ", ")},
	}
}

func (f *formState) title() string {
	switch f.kind {
	case formAddFolder:
		return "New folder"
	case formAddList:
		return "New list"
	case formRename:
		return "Rename"
	case formAddTask:
		return "New task"
	default:
		return "Edit task"
	}
}

func (f *formState) currentLabel() string {
	return f.labels[f.index]
}

func (f *formState) currentValue() string {
	return f.values[f.index]
}

func (f *formState) setCurrentValue(v string) {
	f.values[f.index] = v
}

func (m Model) openForm(f *formState) (tea.Model, tea.Cmd) {
	m.form = f
	m.mode = modeForm
	m.input.SetValue(f.currentValue())
	m.input.Placeholder = f.currentLabel()
	m.status = m.formPrompt()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) closeForm(status string) Model {
	m.form = nil
	m.mode = modeBrowse
	m.input.SetValue("")
	m.input.Blur()
	m.status = status
	return m
}

func (m Model) updateForm(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m.closeForm(""), nil
	}
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		return m.closeForm("Cancelled"), nil
	case "tab", "down":
		m.moveField(1)
		return m, nil
	case "shift+tab", "up":
		m.moveField(-1)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(m.form.labels)-1 {
			return m.submitForm()
		}
		m.moveField(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) moveField(delta int) {
	m.form.setCurrentValue(m.input.Value())
	m.form.index = wrapIndex(m.form.index+delta, len(m.form.labels))
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = m.formPrompt()
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.form.title(), m.form.currentLabel(), m.form.index+1, len(m.form.labels))
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	snap := m.store.Snapshot()

	switch f.kind {
	case formAddFolder:
		name := strings.TrimSpace(f.values[0])
		color := m.paletteColor(len(snap.Folders))
		if err := m.dispatch(store.AddFolder{Name: name, Color: color}); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.closeForm("Added folder " + name), nil

	case formAddList:
		name := strings.TrimSpace(f.values[0])
		color := m.paletteColor(len(snap.TaskLists))
		if folder, ok := snap.Folder(f.target); ok && folder.Color != "" {
			color = folder.Color
		}
		id := m.store.NewID()
		if err := m.dispatch(store.AddTaskList{ID: id, Name: name, FolderID: f.target, Color: color}); err != nil {
			m.status = err.Error()
			return m, nil
		}
		if err := m.store.SelectList(id); err != nil {
			return m.closeForm(fmt.Sprintf("select failed: %v", err)), nil
		}
		return m.closeForm("Added list " + name), nil

	case formRename:
		name := strings.TrimSpace(f.values[0])
		var a store.Action = store.UpdateFolder{ID: f.target, Patch: store.FolderPatch{Name: &name}}
		if f.targetKind == navList {
			a = store.UpdateTaskList{ID: f.target, Patch: store.TaskListPatch{Name: &name}}
		}
		if err := m.dispatch(a); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.closeForm("Renamed to " + name), nil

	case formAddTask, formEditTask:
		fields, err := parseTaskFields(f.values)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		var a store.Action
		if f.kind == formAddTask {
			a = store.AddTask{
				Title:       fields.title,
				Description: fields.description,
				DueDate:     fields.due,
				ListID:      f.target,
				Priority:    fields.priority,
				Tags:        fields.tags,
			}
		} else {
			a = store.UpdateTask{ID: f.target, Patch: store.TaskPatch{
				Title:        &fields.title,
				Description:  &fields.description,
				DueDate:      fields.due,
				ClearDueDate: fields.due == nil,
				Priority:     &fields.priority,
				Tags:         &fields.tags,
			}}
		}
		if err := m.dispatch(a); err != nil {
			m.status = err.Error()
			return m, nil
		}
		if f.kind == formAddTask {
			m.cursor = len(snap.TasksForList(f.target))
			return m.closeForm("Added task"), nil
		}
		return m.closeForm("Saved task"), nil
	}
	return m.closeForm(""), nil
}

type taskFields struct {
	title       string
	description string
	due         *model.Date
	priority    model.Priority
	tags        []string
}

func parseTaskFields(values []string) (taskFields, error) {
	tf := taskFields{
		title:       strings.TrimSpace(values[fieldTitle]),
		description: strings.TrimSpace(values[fieldDescription]),
		priority:    model.Priority(strings.ToLower(strings.TrimSpace(values[fieldPriority]))),
		tags:        model.ParseTags(values[fieldTags]),
	}
	if !tf.priority.Valid() {
		return tf, fmt.Errorf("priority invalid: %q", values[fieldPriority])
	}
	if v := strings.TrimSpace(values[fieldDue]); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return tf, fmt.Errorf("due date invalid: %v", err)
		}
		tf.due = &d
	}
	return tf, nil
}

func (m Model) paletteColor(n int) string {
	if len(m.cfg.Palette) == 0 {
		return model.DefaultColor
	}
	return m.cfg.Palette[n%len(m.cfg.Palette)]
}
