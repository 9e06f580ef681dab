package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"tasktree/internal/config"
	"tasktree/internal/model"
)

const sidebarWidth = 32

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activePane  = paneStyle.BorderForeground(lipgloss.Color("#1976d2"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d32f2f")).Bold(true)
)

func (m Model) View() string {
	snap := m.store.Snapshot()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Tasktree"))
	b.WriteString("\n")

	side, body := paneStyle, activePane
	if m.pane == paneSidebar {
		side, body = activePane, paneStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		side.Width(sidebarWidth).Render(m.renderSidebar(snap)),
		body.Width(m.mainWidth()).Render(m.renderMain(snap)),
	))
	b.WriteString("\n")

	if m.form != nil {
		b.WriteString(headerStyle.Render(m.form.title()))
		b.WriteString("\n")
		b.WriteString(m.renderFormBox())
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) mainWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width-sidebarWidth-8, 30)
}

func (m Model) renderSidebar(snap model.Snapshot) string {
	items := navItems(snap)
	if len(items) == 0 {
		return "No folders yet. Press " + m.cfg.Keys.AddFolder + " to add one."
	}
	cur := clampCursor(m.navCursor, len(items))

	var b strings.Builder
	for i, item := range items {
		cursor := " "
		if i == cur && m.pane == paneSidebar {
			cursor = ">"
		}
		switch item.kind {
		case navFolder:
			f, _ := snap.Folder(item.id)
			marker := " "
			if snap.SelectedFolderID == f.ID {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s%s%s %s\n", cursor, marker, swatch(f.Color), headerStyle.Render(f.Name))
		case navList:
			l, _ := snap.TaskList(item.id)
			marker := " "
			if snap.SelectedListID == l.ID {
				marker = "*"
			}
			st := snap.ListStats(l.ID)
			fmt.Fprintf(&b, "%s%s  %s %s %s\n", cursor, marker, swatch(l.Color), l.Name,
				dimStyle.Render(fmt.Sprintf("%d", st.Total-st.Completed)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMain(snap model.Snapshot) string {
	if folder, ok := shownFolder(snap); ok {
		return m.renderFolderView(snap, folder)
	}
	if list, ok := snap.CurrentList(); ok {
		return m.renderTaskList(snap, list)
	}
	return "Select a list or folder from the sidebar."
}

func (m Model) renderFolderView(snap model.Snapshot, f model.Folder) string {
	lists := snap.TaskListsForFolder(f.ID)
	cur := clampCursor(m.cursor, len(lists))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", swatch(f.Color), headerStyle.Render(f.Name))
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("%d lists", len(lists))))
	if len(lists) == 0 {
		b.WriteString("No lists in this folder. Press " + m.cfg.Keys.AddList + " in the sidebar to add one.")
		return b.String()
	}
	for i, l := range lists {
		cursor := " "
		if i == cur && m.pane == paneMain {
			cursor = ">"
		}
		st := snap.ListStats(l.ID)
		fmt.Fprintf(&b, "%s %s %-20s %d/%d %s %3.0f%%\n", cursor, swatch(l.Color), l.Name,
			st.Completed, st.Total, progressBar(st.Progress(), 10), st.Progress())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderTaskList(snap model.Snapshot, l model.TaskList) string {
	tasks := snap.TasksForList(l.ID)
	cur := clampCursor(m.cursor, len(tasks))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", swatch(l.Color), headerStyle.Render(l.Name))
	if f, ok := snap.Folder(l.FolderID); ok {
		b.WriteString(dimStyle.Render("  in " + f.Name))
	}
	b.WriteString("\n\n")

	if len(tasks) == 0 {
		b.WriteString("No tasks yet. Press " + m.cfg.Keys.AddTask + " to add one.")
		return b.String()
	}
	for i, t := range tasks {
		cursor := " "
		if i == cur && m.pane == paneMain {
			cursor = ">"
		}
		b.WriteString(cursor + " " + m.renderTaskRow(t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderTaskDetail(tasks[cur]))
	return b.String()
}

func (m Model) renderTaskRow(t model.Task) string {
	checkbox := "[ ]"
	title := t.Title
	if t.Completed {
		checkbox = "[x]"
		title = doneStyle.Render(title)
	}

	extras := make([]string, 0, 3)
	if t.Priority != model.PriorityNone {
		p := "!" + string(t.Priority)
		if t.Priority == model.PriorityHigh {
			p = highStyle.Render(p)
		}
		extras = append(extras, p)
	}
	for _, tag := range t.Tags {
		extras = append(extras, "#"+tag)
	}
	if t.DueDate != nil {
		extras = append(extras, "due "+relativeDue(*t.DueDate, m.now()))
	}

	row := checkbox + " " + title
	if len(extras) > 0 {
		row += " " + dimStyle.Render(strings.Join(extras, " "))
	}
	return row
}

func (m Model) renderTaskDetail(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Description : %s\n", emptyPlaceholder(t.Description))
	fmt.Fprintf(&b, "Priority    : %s\n", priorityLabel(t.Priority))
	fmt.Fprintf(&b, "Tags        : %s\n", emptyPlaceholder(strings.Join(t.Tags, ", ")))
	due := "(none)"
	if t.DueDate != nil {
		due = t.DueDate.String() + " (" + relativeDue(*t.DueDate, m.now()) + ")"
	}
	fmt.Fprintf(&b, "Due         : %s\n", due)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created     : %s", humanize.RelTime(t.CreatedAt, m.now(), "ago", "from now"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFormBox() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	for i, name := range m.form.labels {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		fmt.Fprintf(&b, "%s %-28s : %s\n", prefix, name, emptyPlaceholder(m.form.values[i]))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s pane • %s select • %s folder • %s list • %s task • %s toggle • %s edit • %s rename • %s color • %s/%s priority • %s/%s due • %s delete • %s quit",
		k.Up, k.Down, k.SwitchPane, k.Select, k.AddFolder, k.AddList, k.AddTask, keyLabel(k.Toggle),
		k.Edit, k.Rename, k.CycleColor, k.PriorityUp, k.PriorityDown, k.DueBack, k.DueForward, k.Delete, k.Quit)
}

// relativeDue renders a due date relative to today: "today",
// "3 days from now" or "2 days ago".
func relativeDue(d model.Date, now time.Time) string {
	today := model.DateOf(now)
	if d.Equal(today.Time) {
		return "today"
	}
	return humanize.RelTime(d.Time, today.Time, "ago", "from now")
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = clampCursor(filled, width+1)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func swatch(color string) string {
	if color == "" {
		color = model.DefaultColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func priorityLabel(p model.Priority) string {
	if p == model.PriorityNone {
		return "(none)"
	}
	return string(p)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
