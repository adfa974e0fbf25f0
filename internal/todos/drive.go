package todos

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// MaxParallel bounds how many commands Drive runs at once.
const MaxParallel = 8

// Drive runs cmd, and every command its results produce, to completion
// without a Bubble Tea program. Commands of one round run in parallel; their
// results are applied through s.Update on the calling goroutine once the
// whole round has settled. Sessions driven this way should have a zero error
// delay, otherwise expiry ticks are waited out.
func Drive(ctx context.Context, s Session, cmd tea.Cmd) error {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		msgs := runRound(queue)
		queue = queue[:0:0]
		for _, msg := range msgs {
			switch msg := msg.(type) {
			case nil:
			case tea.BatchMsg:
				queue = append(queue, msg...)
			default:
				if next := s.Update(msg); next != nil {
					queue = append(queue, next)
				}
			}
		}
	}
	return nil
}

func runRound(cmds []tea.Cmd) []tea.Msg {
	msgs := make([]tea.Msg, len(cmds))
	var g errgroup.Group
	g.SetLimit(MaxParallel)
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		i, cmd := i, cmd
		g.Go(func() error {
			msgs[i] = cmd()
			return nil
		})
	}
	_ = g.Wait()
	return msgs
}
