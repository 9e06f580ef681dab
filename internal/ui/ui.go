package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktree/internal/config"
	"tasktree/internal/model"
	"tasktree/internal/store"
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

type pane int

const (
	paneSidebar pane = iota
	paneMain
)

type navKind int

const (
	navFolder navKind = iota
	navList
)

type navItem struct {
	kind     navKind
	id       string
	folderID string
}

type confirmState struct {
	action store.Action
	prompt string
}

type Model struct {
	store     *store.Store
	cfg       config.Config
	now       func() time.Time
	pane      pane
	navCursor int
	cursor    int
	mode      mode
	input     textinput.Model
	form      *formState
	confirm   *confirmState
	status    string
	width     int
}

func New(st *store.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		store:  st,
		cfg:    cfg,
		now:    time.Now,
		input:  ti,
		mode:   modeBrowse,
		status: "tab switches panes, enter selects, a adds a task.",
	}
}

func Run(st *store.Store, cfg config.Config) error {
	program := tea.NewProgram(New(st, cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg.String(), msg)
		case modeConfirm:
			return m.updateConfirm(msg.String())
		}
		return m.updateBrowse(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-20, 20)
	}
	return m, nil
}

func (m Model) updateBrowse(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.SwitchPane:
		if m.pane == paneSidebar {
			m.pane = paneMain
		} else {
			m.pane = paneSidebar
		}
		m.cursor = 0
		return m, nil
	case m.cfg.Keys.AddTask:
		list, ok := m.store.CurrentList()
		if !ok {
			m.status = "Select a list first"
			return m, nil
		}
		return m.openForm(newTaskForm(formAddTask, list.ID, model.Task{Priority: model.PriorityMedium}))
	case m.cfg.Keys.AddFolder:
		return m.openForm(newNameForm(formAddFolder, "", navFolder, ""))
	}
	if m.pane == paneSidebar {
		return m.updateSidebar(key)
	}
	return m.updateMain(key)
}

func (m Model) updateSidebar(key string) (tea.Model, tea.Cmd) {
	snap := m.store.Snapshot()
	items := navItems(snap)
	m.navCursor = clampCursor(m.navCursor, len(items))

	switch key {
	case m.cfg.Keys.Down, "down":
		m.navCursor = clampCursor(m.navCursor+1, len(items))
		return m, nil
	case m.cfg.Keys.Up, "up":
		m.navCursor = clampCursor(m.navCursor-1, len(items))
		return m, nil
	}

	if len(items) == 0 {
		if key == m.cfg.Keys.AddList {
			m.status = "Create a folder first"
		}
		return m, nil
	}
	item := items[m.navCursor]

	switch key {
	case m.cfg.Keys.Select:
		var err error
		if item.kind == navFolder {
			err = m.store.SelectFolder(item.id)
		} else {
			err = m.store.SelectList(item.id)
		}
		if err != nil {
			m.status = fmt.Sprintf("select failed: %v", err)
			return m, nil
		}
		m.pane = paneMain
		m.cursor = 0
		m.status = "Selected " + itemName(snap, item)
	case m.cfg.Keys.AddList:
		return m.openForm(newNameForm(formAddList, item.folderID, navList, ""))
	case m.cfg.Keys.Rename:
		return m.openForm(newNameForm(formRename, item.id, item.kind, itemName(snap, item)))
	case m.cfg.Keys.CycleColor:
		m.cycleColor(snap, item)
	case m.cfg.Keys.Delete:
		m.askDelete(snap, item)
	}
	return m, nil
}

func (m Model) updateMain(key string) (tea.Model, tea.Cmd) {
	snap := m.store.Snapshot()
	if folder, ok := shownFolder(snap); ok {
		return m.updateFolderView(key, snap.TaskListsForFolder(folder.ID))
	}
	list, ok := snap.CurrentList()
	if !ok {
		return m, nil
	}
	tasks := snap.TasksForList(list.ID)
	m.cursor = clampCursor(m.cursor, len(tasks))

	switch key {
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(tasks))
		return m, nil
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(tasks))
		return m, nil
	}
	if len(tasks) == 0 {
		return m, nil
	}
	task := tasks[m.cursor]

	switch key {
	case m.cfg.Keys.Toggle:
		if err := m.dispatch(store.ToggleTask{ID: task.ID}); err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.status = "Toggled task"
	case m.cfg.Keys.Edit, m.cfg.Keys.Select:
		return m.openForm(newTaskForm(formEditTask, task.ID, task))
	case m.cfg.Keys.Delete:
		m.confirm = &confirmState{
			action: store.DeleteTask{ID: task.ID},
			prompt: fmt.Sprintf("Delete %q? y/n", task.Title),
		}
		m.mode = modeConfirm
		m.status = m.confirm.prompt
	case m.cfg.Keys.PriorityUp:
		m.setPriority(task, bumpPriority(task.Priority, 1))
	case m.cfg.Keys.PriorityDown:
		m.setPriority(task, bumpPriority(task.Priority, -1))
	case m.cfg.Keys.DueForward:
		m.shiftDue(task, 1)
	case m.cfg.Keys.DueBack:
		m.shiftDue(task, -1)
	}
	return m, nil
}

func (m Model) updateFolderView(key string, lists []model.TaskList) (tea.Model, tea.Cmd) {
	m.cursor = clampCursor(m.cursor, len(lists))
	switch key {
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(lists))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(lists))
	case m.cfg.Keys.Select:
		if len(lists) == 0 {
			return m, nil
		}
		l := lists[m.cursor]
		if err := m.store.SelectList(l.ID); err != nil {
			m.status = fmt.Sprintf("select failed: %v", err)
			return m, nil
		}
		m.cursor = 0
		m.status = "Selected " + l.Name
	}
	return m, nil
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
	case "y", "Y":
		if m.confirm == nil {
			m.status = "Nothing to delete"
			break
		}
		if err := m.dispatch(m.confirm.action); err != nil {
			if errors.Is(err, store.ErrDefaultProtected) {
				m.status = err.Error()
			} else {
				m.status = fmt.Sprintf("delete failed: %v", err)
			}
			break
		}
		m.status = "Deleted"
		m.cursor = 0
	default:
		return m, nil
	}
	m.confirm = nil
	m.mode = modeBrowse
	return m, nil
}

func (m *Model) askDelete(snap model.Snapshot, item navItem) {
	switch item.kind {
	case navFolder:
		f, _ := snap.Folder(item.id)
		lists := snap.TaskListsForFolder(item.id)
		st := snap.FolderStats(item.id)
		m.confirm = &confirmState{
			action: store.DeleteFolder{ID: item.id},
			prompt: fmt.Sprintf("Delete folder %q with %d lists and %d tasks? y/n", f.Name, len(lists), st.Total),
		}
	case navList:
		l, _ := snap.TaskList(item.id)
		m.confirm = &confirmState{
			action: store.DeleteTaskList{ID: item.id},
			prompt: fmt.Sprintf("Delete list %q and its %d tasks? y/n", l.Name, snap.ListStats(item.id).Total),
		}
	}
	m.mode = modeConfirm
	m.status = m.confirm.prompt
}

func (m *Model) cycleColor(snap model.Snapshot, item navItem) {
	var current string
	if item.kind == navFolder {
		f, _ := snap.Folder(item.id)
		current = f.Color
	} else {
		l, _ := snap.TaskList(item.id)
		current = l.Color
	}
	next := nextColor(m.cfg.Palette, current)

	var a store.Action = store.UpdateFolder{ID: item.id, Patch: store.FolderPatch{Color: &next}}
	if item.kind == navList {
		a = store.UpdateTaskList{ID: item.id, Patch: store.TaskListPatch{Color: &next}}
	}
	if err := m.dispatch(a); err != nil {
		m.status = fmt.Sprintf("color failed: %v", err)
		return
	}
	m.status = "Color " + next
}

func (m *Model) setPriority(t model.Task, p model.Priority) {
	if err := m.dispatch(store.UpdateTask{ID: t.ID, Patch: store.TaskPatch{Priority: &p}}); err != nil {
		m.status = fmt.Sprintf("priority failed: %v", err)
		return
	}
	m.status = "Priority " + priorityLabel(p)
}

func (m *Model) shiftDue(t model.Task, days int) {
	base := model.DateOf(m.now())
	if t.DueDate != nil {
		base = *t.DueDate
	}
	due := base.AddDays(days)
	if err := m.dispatch(store.UpdateTask{ID: t.ID, Patch: store.TaskPatch{DueDate: &due}}); err != nil {
		m.status = fmt.Sprintf("due date failed: %v", err)
		return
	}
	m.status = "Due " + due.String()
}

// dispatch validates a against the current state before handing it to the
// store, which itself accepts anything.
func (m Model) dispatch(a store.Action) error {
	if err := store.Validate(m.store.Snapshot(), a); err != nil {
		return err
	}
	return m.store.Dispatch(a)
}

func navItems(s model.Snapshot) []navItem {
	items := make([]navItem, 0, len(s.Folders)+len(s.TaskLists))
	for _, f := range s.Folders {
		items = append(items, navItem{kind: navFolder, id: f.ID, folderID: f.ID})
		for _, l := range s.TaskListsForFolder(f.ID) {
			items = append(items, navItem{kind: navList, id: l.ID, folderID: f.ID})
		}
	}
	return items
}

func itemName(s model.Snapshot, item navItem) string {
	if item.kind == navFolder {
		f, _ := s.Folder(item.id)
		return f.Name
	}
	l, _ := s.TaskList(item.id)
	return l.Name
}

// shownFolder is the folder the main pane shows when a folder, rather than
// a list, is selected.
func shownFolder(s model.Snapshot) (model.Folder, bool) {
	if s.SelectedFolderID == "" {
		return model.Folder{}, false
	}
	return s.Folder(s.SelectedFolderID)
}

func bumpPriority(p model.Priority, delta int) model.Priority {
	order := append([]model.Priority{model.PriorityNone}, model.Priorities()...)
	idx := clampCursor(p.Rank()+delta, len(order))
	return order[idx]
}

func nextColor(palette []string, current string) string {
	if len(palette) == 0 {
		return model.DefaultColor
	}
	for i, c := range palette {
		if strings.EqualFold(c, current) {
			return palette[(i+1)%len(palette)]
		}
	}
	return palette[0]
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
