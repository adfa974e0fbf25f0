package todos

import (
	"slices"

	"github.com/Makepad-fr/tada/internal/model"
)

// Snapshot is a read-only copy of controller state for rendering.
type Snapshot struct {
	Todos      []model.Todo
	Visible    []model.Todo
	Counts     model.Counts
	Draft      *model.Draft
	Processing ProcessingSet
	Filter     model.Filter
	Err        ErrorKind
	EditingID  int
	EditTitle  string
	Title      string
	Loading    bool
	Loaded     bool
}

func (c *Controller) Snapshot() Snapshot {
	todos := slices.Clone(c.todos)
	var draft *model.Draft
	if c.draft != nil {
		d := *c.draft
		draft = &d
	}
	return Snapshot{
		Todos:      todos,
		Visible:    model.Visible(todos, c.filter),
		Counts:     model.CountTodos(todos),
		Draft:      draft,
		Processing: c.processing.clone(),
		Filter:     c.filter,
		Err:        c.errKind,
		EditingID:  c.editing,
		EditTitle:  c.editTitle,
		Title:      c.title,
		Loading:    c.Loading(),
		Loaded:     c.loaded,
	}
}

// ShowFooter is false only when there is nothing to summarise.
func (s Snapshot) ShowFooter() bool { return len(s.Todos) > 0 || s.Draft != nil }

func (s Snapshot) InputDisabled() bool { return s.Draft != nil || s.Loading }

// ToggleAllActive mirrors the toggle-all control's pressed look.
func (s Snapshot) ToggleAllActive() bool { return s.Counts.AllCompleted() }
