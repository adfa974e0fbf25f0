package model

import (
	"fmt"
	"strings"
)

// Filter selects which todos are visible.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// Next cycles All -> Active -> Completed -> All.
func (f Filter) Next() Filter { return Filters[(int(f)+1)%len(Filters)] }

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all|active|completed)", s)
}

func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Visible returns the todos that pass f, keeping their order.
func Visible(todos []Todo, f Filter) []Todo {
	if f == FilterAll {
		return todos
	}
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Counts summarises a collection for the footer and the toggle-all control.
type Counts struct {
	Total     int
	Active    int
	Completed int
}

func CountTodos(todos []Todo) Counts {
	c := Counts{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// AllCompleted drives the toggle-all "active" look: every record is done and
// there is at least one.
func (c Counts) AllCompleted() bool { return c.Total > 0 && c.Completed == c.Total }
