package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
)

// rowItem adapts a todo (or the pending draft) to bubbles/list.Item.
type rowItem struct {
	todo  model.Todo
	draft bool
}

func (i rowItem) FilterValue() string { return i.todo.Title }

// rowDelegate renders one line per todo. It is rebuilt on every sync so it
// carries the processing set, spinner frame and inline editor.
type rowDelegate struct {
	processing todos.ProcessingSet
	frame      string
	editingID  int
	editView   string
	focused    bool
}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(rowItem)

	prefix := "  "
	if d.focused && index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
	}

	if !it.draft && it.todo.ID == d.editingID {
		fmt.Fprint(w, prefix+d.editView)
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	switch {
	case it.draft:
		box = pendingStyle.Render(d.frame)
		text = mutedStyle.Render(text)
	case d.processing.Has(it.todo.ID):
		box = pendingStyle.Render(d.frame)
		if it.todo.Completed {
			text = doneStyle.Render(text)
		}
	case it.todo.Completed:
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	fmt.Fprint(w, prefix+box+" "+text)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusList
)

// Model is the Bubble Tea model for the todo screen. It renders a snapshot
// of the session and forwards user intents to it.
type Model struct {
	s    todos.Session
	snap todos.Snapshot

	list  list.Model
	input textinput.Model
	edit  textinput.Model
	spin  spinner.Model
	help  help.Model
	keys  keyMap

	focus     focusArea
	editingID int
	hadDraft  bool

	width, height int
}

func New(s todos.Session) Model {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = helpStyle

	in := textinput.New()
	in.Prompt = "  "
	in.Placeholder = "What needs to be done?"
	in.CharLimit = 200
	in.Cursor.SetMode(cursor.CursorStatic)
	in.Focus()

	ed := textinput.New()
	ed.Prompt = ""
	ed.CharLimit = 200
	ed.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(pendingStyle))

	m := Model{
		s:      s,
		list:   l,
		input:  in,
		edit:   ed,
		spin:   sp,
		help:   help.New(),
		keys:   defaultKeys(),
		width:  80,
		height: 24,
	}
	m.sync()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(s todos.Session) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.s.Load(), m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.list.SetSize(m.listSize())
	case spinner.TickMsg:
		m.spin, cmd = m.spin.Update(msg)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	default:
		cmd = m.s.Update(msg)
	}
	m.sync()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.editingID != 0 {
		return m.handleEditKey(msg)
	}
	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}
	return m.handleListKey(msg)
}

// edit mode
func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.s.CommitEdit(m.editingID, m.edit.Value())
	case "esc":
		m.s.CancelEdit()
		return nil
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.s.SetEditTitle(m.edit.Value())
	return cmd
}

// header input
func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if m.snap.InputDisabled() {
			return nil
		}
		return m.s.Create(m.input.Value())
	case "esc":
		if m.snap.Err != todos.ErrNone {
			m.s.DismissError()
			return nil
		}
		m.focus = focusList
		return nil
	case "tab", "down":
		m.focus = focusList
		return nil
	}
	if m.snap.InputDisabled() {
		return nil
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.s.SetTitle(m.input.Value())
	}
	return cmd
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	sel, hasSel := m.selected()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Add):
		m.focus = focusInput
		return nil
	case key.Matches(msg, m.keys.Dismiss):
		m.s.DismissError()
		return nil
	case key.Matches(msg, m.keys.Toggle):
		if hasSel {
			return m.s.ToggleOne(sel.ID)
		}
		return nil
	case key.Matches(msg, m.keys.Edit):
		if hasSel {
			m.s.StartEdit(sel.ID)
		}
		return nil
	case key.Matches(msg, m.keys.Delete):
		if hasSel {
			return m.s.Remove(sel.ID)
		}
		return nil
	case key.Matches(msg, m.keys.ToggleAll):
		if m.snap.Loading {
			return nil
		}
		return m.s.ToggleAll()
	case key.Matches(msg, m.keys.Clear):
		if m.snap.Loading {
			return nil
		}
		return m.s.RemoveCompleted()
	case key.Matches(msg, m.keys.FilterAll):
		m.s.SelectFilter(model.FilterAll)
		return nil
	case key.Matches(msg, m.keys.FilterAct):
		m.s.SelectFilter(model.FilterActive)
		return nil
	case key.Matches(msg, m.keys.FilterDone):
		m.s.SelectFilter(model.FilterCompleted)
		return nil
	case key.Matches(msg, m.keys.FilterCycle), msg.String() == "tab":
		m.s.SelectFilter(m.snap.Filter.Next())
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.s.Load()
	case msg.String() == "?":
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}
	if msg.String() == "up" && m.list.Index() == 0 {
		m.focus = focusInput
		return nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// selected returns the persisted todo under the cursor. The draft row is
// never selectable.
func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(rowItem)
	if !ok || it.draft {
		return model.Todo{}, false
	}
	return it.todo, true
}

// sync pulls a fresh snapshot and reconciles widgets with it.
func (m *Model) sync() {
	m.snap = m.s.Snapshot()

	if m.hadDraft && m.snap.Draft == nil {
		m.focus = focusInput
	}
	m.hadDraft = m.snap.Draft != nil

	if m.input.Value() != m.snap.Title {
		m.input.SetValue(m.snap.Title)
		m.input.CursorEnd()
	}
	if m.focus == focusInput && m.editingID == 0 && !m.snap.InputDisabled() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}

	if m.snap.EditingID != m.editingID {
		m.editingID = m.snap.EditingID
		if m.editingID != 0 {
			m.edit.SetValue(m.snap.EditTitle)
			m.edit.CursorEnd()
			m.edit.Focus()
		} else {
			m.edit.Blur()
		}
	}

	items := make([]list.Item, 0, len(m.snap.Visible)+1)
	for _, t := range m.snap.Visible {
		items = append(items, rowItem{todo: t})
	}
	if m.snap.Draft != nil {
		items = append(items, rowItem{todo: model.Todo{Title: m.snap.Draft.Title}, draft: true})
	}
	m.list.SetItems(items)
	m.list.SetDelegate(rowDelegate{
		processing: m.snap.Processing,
		frame:      m.spin.View(),
		editingID:  m.editingID,
		editView:   m.edit.View(),
		focused:    m.focus == focusList,
	})
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerLine())
	b.WriteString("\n")
	b.WriteString(m.inputLine())
	b.WriteString("\n")

	m.list.SetSize(m.listSize())

	switch {
	case len(m.list.Items()) > 0:
		b.WriteString(m.list.View())
	case !m.snap.Loaded:
		b.WriteString(mutedStyle.Render("  " + m.spin.View() + " loading..."))
	case len(m.snap.Todos) > 0:
		b.WriteString(mutedStyle.Render("  nothing " + strings.ToLower(m.snap.Filter.String())))
	default:
		b.WriteString(mutedStyle.Render("  no items"))
	}

	if m.snap.ShowFooter() {
		b.WriteString("\n\n")
		b.WriteString(m.footerLine())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	out := panelString(b.String())
	if m.snap.Err != todos.ErrNone {
		out += "\n" + bannerString(errorStyle.Render("✖ "+m.snap.Err.String())+mutedStyle.Render("  (esc to dismiss)"))
	}
	return out
}

// listSize leaves room for the header, input, footer, help and the error
// banner when one is showing.
func (m Model) listSize() (int, int) {
	chrome := 8
	if m.snap.Err != todos.ErrNone {
		chrome += 3
	}
	return max(m.width-4, 20), max(m.height-chrome, 3)
}

func (m Model) headerLine() string {
	c := m.snap.Counts
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("todos"),
		successStyle.Render("✔"), c.Completed,
		pendingStyle.Render("•"), c.Active,
		accentStyle.Render("Total"), c.Total,
	)
}

func (m Model) inputLine() string {
	toggle := " "
	if m.snap.Counts.Total > 0 {
		toggle = mutedStyle.Render(toggleAll)
		if m.snap.ToggleAllActive() {
			toggle = accentStyle.Render(toggleAll)
		}
	}
	line := m.input.View()
	if m.snap.InputDisabled() {
		line = "  " + m.spin.View() + " " + mutedStyle.Render(m.input.Value())
	}
	return toggle + line
}

func (m Model) footerLine() string {
	c := m.snap.Counts
	left := fmt.Sprintf("%d items left", c.Active)

	tabs := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		if f == m.snap.Filter {
			tabs = append(tabs, tabOnStyle.Render(f.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(f.String()))
		}
	}
	parts := []string{left, lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)}
	if c.Completed > 0 {
		parts = append(parts, accentStyle.Render("Clear completed"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, joinSpaced(parts)...)
}

func joinSpaced(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, "   ")
		}
		out = append(out, p)
	}
	return out
}
