package todos

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

var errBoom = &api.HTTPError{Status: http.StatusInternalServerError, Method: "X", Path: "/todos"}

// fakeClient is an in-memory api.Client that records calls and can be told
// to fail per id or per operation.
type fakeClient struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int

	failList   bool
	failCreate bool
	failUpdate map[int]bool
	failDelete map[int]bool

	listCalls   int
	createCalls []model.NewTodo
	updateCalls []int
	deleteCalls []int
}

func newFake(todos ...model.Todo) *fakeClient {
	next := 1
	for _, t := range todos {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return &fakeClient{
		todos:      todos,
		nextID:     next,
		failUpdate: map[int]bool{},
		failDelete: map[int]bool{},
	}
}

func (f *fakeClient) List(_ context.Context, ownerID int) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList {
		return nil, errors.Join(api.ErrNetwork, errors.New("dial tcp: refused"))
	}
	var out []model.Todo
	for _, t := range f.todos {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeClient) Create(_ context.Context, t model.NewTodo) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, t)
	if f.failCreate {
		return model.Todo{}, errBoom
	}
	rec := model.Todo{ID: f.nextID, UserID: t.UserID, Title: t.Title, Completed: t.Completed}
	f.nextID++
	f.todos = append(f.todos, rec)
	return rec, nil
}

func (f *fakeClient) Update(_ context.Context, id int, p model.Patch) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	if f.failUpdate[id] {
		return model.Todo{}, errBoom
	}
	for i, t := range f.todos {
		if t.ID == id {
			f.todos[i] = p.Apply(t)
			return f.todos[i], nil
		}
	}
	return model.Todo{}, &api.HTTPError{Status: http.StatusNotFound}
}

func (f *fakeClient) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if f.failDelete[id] {
		return errBoom
	}
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return &api.HTTPError{Status: http.StatusNotFound}
}

func (f *fakeClient) calls() (updates, deletes, creates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updateCalls), len(f.deleteCalls), len(f.createCalls)
}
