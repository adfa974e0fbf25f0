package model

import "strings"

// Todo is a persisted todo record. ID is assigned by the server and is
// always positive once the record exists.
type Todo struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// NewTodo is the create payload: a Todo without an id.
type NewTodo struct {
	UserID    int    `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func TitlePatch(title string) Patch { return Patch{Title: &title} }

func CompletedPatch(completed bool) Patch { return Patch{Completed: &completed} }

func (p Patch) TouchesTitle() bool { return p.Title != nil }

func (p Patch) Empty() bool { return p.Title == nil && p.Completed == nil }

// Apply returns t with the patch fields written over it.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Draft is an optimistic creation that the server has not acknowledged yet.
// It has no id; it is shown after the persisted records until it resolves.
type Draft struct {
	Title string
}

// CleanTitle trims surrounding whitespace from a user-entered title.
func CleanTitle(s string) string { return strings.TrimSpace(s) }
