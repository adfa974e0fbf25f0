package todos

import "github.com/Makepad-fr/tada/internal/model"

// Result messages. Commands produce them off the update goroutine; only
// Controller.Update applies them.

type loadedMsg struct {
	todos []model.Todo
	err   error
}

type createdMsg struct {
	todo model.Todo
	err  error
}

type updatedMsg struct {
	id    int
	patch model.Patch
	todo  model.Todo
	bulk  int
	err   error
}

type deletedMsg struct {
	id   int
	bulk int
	err  error
}

type errorExpiredMsg struct{ seq int }
