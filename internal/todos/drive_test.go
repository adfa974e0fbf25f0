package todos

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Drive_Stops_When_Context_Is_Cancelled(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", true))
	c := New(fake, Options{OwnerID: owner})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Drive(ctx, c, c.Load())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fake.listCalls)
}

func Test_Drive_Tolerates_Nil_Commands(t *testing.T) {
	t.Parallel()

	c := New(newFake(), Options{OwnerID: owner})
	require.NoError(t, Drive(context.Background(), c, nil))
	require.NoError(t, Drive(context.Background(), c, tea.Batch(nil, nil)))
}
