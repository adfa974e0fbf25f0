package todos

import (
	"context"
	"log/slog"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

// Options configure a Controller.
type Options struct {
	OwnerID int

	// ErrorDelay is how long a surfaced error lives. Zero disables expiry.
	ErrorDelay time.Duration

	// RequestTimeout bounds each remote call. Zero means no extra bound.
	RequestTimeout time.Duration

	// Context is the parent of every request context. Defaults to Background.
	Context context.Context
}

// Commands is what views may ask of the todo state. Every method runs on the
// update goroutine, changes state immediately, and returns the command that
// performs the remote call (nil when nothing is dispatched).
type Commands interface {
	Create(title string) tea.Cmd
	Remove(id int) tea.Cmd
	RemoveCompleted() tea.Cmd
	Patch(id int, p model.Patch) tea.Cmd
	ToggleOne(id int) tea.Cmd
	ToggleAll() tea.Cmd
	StartEdit(id int)
	SetEditTitle(title string)
	CancelEdit()
	CommitEdit(id int, title string) tea.Cmd
	SelectFilter(f model.Filter)
	SetTitle(title string)
	DismissError()
}

// Session is a Commands owner that can also load, render and absorb results.
type Session interface {
	Commands
	Load() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	Snapshot() Snapshot
}

// Controller owns the todo collection, the pending draft, the processing
// set, the filter, the error slot and the edit session. It is not safe for
// concurrent use: call it from one goroutine and feed every message its
// commands produce back through Update on that same goroutine.
type Controller struct {
	client api.Client
	opts   Options

	todos      []model.Todo
	draft      *model.Draft
	processing ProcessingSet
	filter     model.Filter
	loaded     bool

	errKind ErrorKind
	errSeq  int

	editing   int
	editTitle string

	title string

	bulkSeq int
	bulk    map[int]int
}

var _ Session = (*Controller)(nil)

func New(client api.Client, opts Options) *Controller {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Controller{
		client:     client,
		opts:       opts,
		processing: ProcessingSet{},
		bulk:       map[int]int{},
	}
}

// ---------------------------------------------------
// Queries
// ---------------------------------------------------

func (c *Controller) Todos() []model.Todo { return slices.Clone(c.todos) }

func (c *Controller) Draft() *model.Draft { return c.draft }

func (c *Controller) IsProcessing(id int) bool { return c.processing.Has(id) }

func (c *Controller) Err() ErrorKind { return c.errKind }

func (c *Controller) Filter() model.Filter { return c.filter }

// EditingID is the todo in inline edit, or 0.
func (c *Controller) EditingID() int { return c.editing }

func (c *Controller) Title() string { return c.title }

// Loading reports whether a bulk operation still has calls outstanding.
func (c *Controller) Loading() bool { return len(c.bulk) > 0 }

// InputDisabled is true while a creation is pending or a bulk operation runs.
func (c *Controller) InputDisabled() bool { return c.draft != nil || c.Loading() }

func (c *Controller) find(id int) (int, bool) {
	i := slices.IndexFunc(c.todos, func(t model.Todo) bool { return t.ID == id })
	return i, i >= 0
}

// ---------------------------------------------------
// Error channel
// ---------------------------------------------------

// raise overwrites the error slot. The returned tick clears it later unless
// another raise or clear bumps the sequence first.
func (c *Controller) raise(kind ErrorKind) tea.Cmd {
	c.errKind = kind
	c.errSeq++
	if c.opts.ErrorDelay <= 0 {
		return nil
	}
	seq := c.errSeq
	return tea.Tick(c.opts.ErrorDelay, func(time.Time) tea.Msg { return errorExpiredMsg{seq: seq} })
}

func (c *Controller) clearError() {
	c.errKind = ErrNone
	c.errSeq++
}

func (c *Controller) DismissError() { c.clearError() }

// ---------------------------------------------------
// Input, filter, edit session
// ---------------------------------------------------

func (c *Controller) SetTitle(title string) {
	c.clearError()
	c.title = title
}

func (c *Controller) SelectFilter(f model.Filter) { c.filter = f }

// StartEdit opens inline edit for id, seeded with its stored title.
func (c *Controller) StartEdit(id int) {
	i, ok := c.find(id)
	if !ok || c.processing.Has(id) {
		return
	}
	c.editing = id
	c.editTitle = c.todos[i].Title
}

func (c *Controller) SetEditTitle(title string) { c.editTitle = title }

func (c *Controller) CancelEdit() {
	c.editing = 0
	c.editTitle = ""
}

// CommitEdit closes the edit session. An empty title deletes the todo, an
// unchanged one is a no-op, anything else is sent as a title update.
func (c *Controller) CommitEdit(id int, title string) tea.Cmd {
	c.CancelEdit()
	clean := model.CleanTitle(title)
	if clean == "" {
		return c.Remove(id)
	}
	return c.Patch(id, model.TitlePatch(clean))
}

// ---------------------------------------------------
// Remote-backed operations
// ---------------------------------------------------

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.opts.RequestTimeout > 0 {
		return context.WithTimeout(c.opts.Context, c.opts.RequestTimeout)
	}
	return context.WithCancel(c.opts.Context)
}

// Load fetches the owner's todos. The collection is replaced only on success.
func (c *Controller) Load() tea.Cmd {
	client, owner := c.client, c.opts.OwnerID
	ctx, cancel := c.requestContext()
	return func() tea.Msg {
		defer cancel()
		todos, err := client.List(ctx, owner)
		return loadedMsg{todos: todos, err: err}
	}
}

// Create validates title and, if it is not blank, shows a draft and asks the
// server to persist it. Nothing is dispatched while input is disabled.
func (c *Controller) Create(title string) tea.Cmd {
	c.title = title
	clean := model.CleanTitle(title)
	if clean == "" {
		return c.raise(ErrValidation)
	}
	if c.InputDisabled() {
		return nil
	}
	c.clearError()
	c.draft = &model.Draft{Title: clean}

	client := c.client
	rec := model.NewTodo{UserID: c.opts.OwnerID, Title: clean}
	ctx, cancel := c.requestContext()
	return func() tea.Msg {
		defer cancel()
		todo, err := client.Create(ctx, rec)
		return createdMsg{todo: todo, err: err}
	}
}

func (c *Controller) Remove(id int) tea.Cmd { return c.remove(id, 0) }

func (c *Controller) remove(id, bulk int) tea.Cmd {
	if c.processing.Has(id) {
		return nil
	}
	c.clearError()
	c.processing.add(id)

	client := c.client
	ctx, cancel := c.requestContext()
	return func() tea.Msg {
		defer cancel()
		err := client.Delete(ctx, id)
		return deletedMsg{id: id, bulk: bulk, err: err}
	}
}

// RemoveCompleted deletes every completed todo in parallel. Loading stays
// set until each delete has settled.
func (c *Controller) RemoveCompleted() tea.Cmd {
	c.clearError()
	var ids []int
	for _, t := range c.todos {
		if t.Completed && !c.processing.Has(t.ID) {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	token := c.beginBulk(len(ids))
	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, c.remove(id, token))
	}
	return tea.Batch(cmds...)
}

// Patch sends a partial update for id. A blank title patch deletes instead;
// a patch that changes nothing sends nothing.
func (c *Controller) Patch(id int, p model.Patch) tea.Cmd { return c.patch(id, p, 0) }

func (c *Controller) patch(id int, p model.Patch, bulk int) tea.Cmd {
	i, ok := c.find(id)
	if !ok || c.processing.Has(id) || p.Empty() {
		return nil
	}
	if p.Title != nil {
		clean := model.CleanTitle(*p.Title)
		if clean == "" {
			return c.remove(id, bulk)
		}
		p.Title = &clean
	}
	if p.Apply(c.todos[i]) == c.todos[i] {
		return nil
	}
	c.clearError()
	c.processing.add(id)
	if c.editing == id {
		c.CancelEdit()
	}

	client := c.client
	ctx, cancel := c.requestContext()
	return func() tea.Msg {
		defer cancel()
		todo, err := client.Update(ctx, id, p)
		return updatedMsg{id: id, patch: p, todo: todo, bulk: bulk, err: err}
	}
}

func (c *Controller) ToggleOne(id int) tea.Cmd {
	i, ok := c.find(id)
	if !ok {
		return nil
	}
	return c.Patch(id, model.CompletedPatch(!c.todos[i].Completed))
}

// ToggleAll completes every active todo, or, when everything is already
// completed, flips every todo back.
func (c *Controller) ToggleAll() tea.Cmd {
	c.clearError()
	counts := model.CountTodos(c.todos)
	var targets []model.Todo
	if counts.Completed != counts.Total {
		targets = model.Visible(c.todos, model.FilterActive)
	} else {
		targets = slices.Clone(c.todos)
	}

	c.bulkSeq++
	token := c.bulkSeq
	cmds := make([]tea.Cmd, 0, len(targets))
	for _, t := range targets {
		if cmd := c.patch(t.ID, model.CompletedPatch(!t.Completed), token); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	c.bulk[token] = len(cmds)
	return tea.Batch(cmds...)
}

func (c *Controller) beginBulk(n int) int {
	c.bulkSeq++
	c.bulk[c.bulkSeq] = n
	return c.bulkSeq
}

func (c *Controller) settleBulk(token int) {
	if token == 0 {
		return
	}
	if n, ok := c.bulk[token]; ok {
		if n <= 1 {
			delete(c.bulk, token)
		} else {
			c.bulk[token] = n - 1
		}
	}
}

// ---------------------------------------------------
// Results
// ---------------------------------------------------

// Update applies a result produced by one of the controller's commands. Other
// messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			slog.Debug("load todos", "owner", c.opts.OwnerID, "err", msg.err)
			return c.raise(ErrLoad)
		}
		c.todos = msg.todos
		c.loaded = true
		return nil

	case createdMsg:
		c.draft = nil
		if msg.err != nil {
			slog.Debug("create todo", "err", msg.err)
			return c.raise(ErrCreate)
		}
		// a reload that raced the create may already hold the record
		if i, found := c.find(msg.todo.ID); found {
			c.todos[i] = msg.todo
		} else {
			c.todos = append(c.todos, msg.todo)
		}
		c.title = ""
		return nil

	case deletedMsg:
		c.processing.remove(msg.id)
		c.settleBulk(msg.bulk)
		if msg.err != nil {
			slog.Debug("delete todo", "id", msg.id, "err", msg.err)
			return c.raise(ErrDelete)
		}
		if i, ok := c.find(msg.id); ok {
			c.todos = slices.Delete(c.todos, i, i+1)
		}
		if c.editing == msg.id {
			c.CancelEdit()
		}
		return nil

	case updatedMsg:
		c.processing.remove(msg.id)
		c.settleBulk(msg.bulk)
		if msg.err != nil {
			slog.Debug("update todo", "id", msg.id, "err", msg.err)
			if msg.patch.TouchesTitle() {
				c.editing = msg.id
				c.editTitle = *msg.patch.Title
			}
			return c.raise(ErrUpdate)
		}
		if i, ok := c.find(msg.id); ok {
			c.todos[i] = msg.todo
		}
		return nil

	case errorExpiredMsg:
		if msg.seq == c.errSeq {
			c.errKind = ErrNone
		}
		return nil
	}
	return nil
}
