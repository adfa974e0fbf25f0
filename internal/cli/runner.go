package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
)

// -------------- one-shot todo commands ----------------
//
// Each command loads the owner's todos, runs one controller operation to
// completion and prints the resulting list. A surfaced ErrorKind is the
// command's error.

func newListCmd(app *App) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return usageErr("%w", err)
			}
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				c.SelectFilter(f)
				return nil, ""
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all|active|completed")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (title can be multiple words)",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				return c.Create(strings.Join(args, " ")), "added"
			})
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle completion of a todo",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				return c.ToggleOne(id), fmt.Sprintf("toggled #%d", id)
			}, id)
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Rename a todo (an empty title deletes it)",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				c.StartEdit(id)
				if model.CleanTitle(title) == "" {
					return c.CommitEdit(id, title), fmt.Sprintf("removed #%d", id)
				}
				return c.CommitEdit(id, title), fmt.Sprintf("renamed #%d", id)
			}, id)
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a todo",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				return c.Remove(id), fmt.Sprintf("removed #%d", id)
			})
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed todo",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				n := model.CountTodos(c.Todos()).Completed
				return c.RemoveCompleted(), fmt.Sprintf("cleared %d completed", n)
			})
		},
	}
}

func newToggleAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every active todo, or reopen all when all are completed",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, app, func(c *todos.Controller) (tea.Cmd, string) {
				return c.ToggleAll(), "toggled all"
			})
		},
	}
}

// runOnce loads, applies op, and prints the list. ids named in must exist
// after the load.
func runOnce(cmd *cobra.Command, app *App, op func(*todos.Controller) (tea.Cmd, string), must ...int) error {
	ctx := cmd.Context()
	c, err := app.controller(ctx, 0)
	if err != nil {
		return err
	}
	if err := todos.Drive(ctx, c, c.Load()); err != nil {
		return err
	}
	if kind := c.Err(); kind != todos.ErrNone {
		return kind
	}
	for _, id := range must {
		if !hasTodo(c.Todos(), id) {
			hint(cmd.ErrOrStderr(), "Hint: run `tada ls` to see valid ids")
			return fmt.Errorf("no todo with id %d", id)
		}
	}

	next, done := op(c)
	if err := todos.Drive(ctx, c, next); err != nil {
		return err
	}
	kind := c.Err()
	if kind == todos.ErrNone && done != "" {
		say(cmd.OutOrStdout(), toneOK, done)
	}
	printList(cmd.OutOrStdout(), c.Snapshot())
	if kind != todos.ErrNone {
		return kind
	}
	return nil
}

func hasTodo(list []model.Todo, id int) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, usageErr("not a valid id: %s", s)
	}
	return n, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErr("usage: %s", cmd.UseLine())
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErr("usage: %s", cmd.UseLine())
		}
		return nil
	}
}
