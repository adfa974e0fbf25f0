package todos

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

const owner = 7

func todo(id int, title string, completed bool) model.Todo {
	return model.Todo{ID: id, UserID: owner, Title: title, Completed: completed}
}

func loadedController(t *testing.T, fake *fakeClient) *Controller {
	t.Helper()

	c := New(fake, Options{OwnerID: owner})
	require.NoError(t, Drive(context.Background(), c, c.Load()))
	require.Equal(t, ErrNone, c.Err())
	return c
}

func ids(todos []model.Todo) []int {
	out := make([]int, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

// batchCmds unwraps a tea.Batch into its per-item commands.
func batchCmds(t *testing.T, cmd tea.Cmd) []tea.Cmd {
	t.Helper()

	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Cmd{func() tea.Msg { return msg }}
	}
	return batch
}

func Test_Load_Replaces_Collection_On_Success(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", true), model.Todo{ID: 3, UserID: 99, Title: "other"})
	c := loadedController(t, fake)

	if diff := cmp.Diff([]model.Todo{todo(1, "a", false), todo(2, "b", true)}, c.Todos()); diff != "" {
		t.Fatalf("todos mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, c.Snapshot().Loaded)
}

func Test_Load_Failure_Keeps_Collection_And_Raises_LoadError(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)

	fake.failList = true
	require.NoError(t, Drive(context.Background(), c, c.Load()))

	assert.Equal(t, ErrLoad, c.Err())
	assert.Equal(t, []int{1}, ids(c.Todos()))
}

func Test_Create_Appends_Server_Record_And_Clears_Input(t *testing.T) {
	t.Parallel()

	fake := newFake()
	c := loadedController(t, fake)

	cmd := c.Create("  buy milk ")
	require.NotNil(t, cmd)

	// Optimistic state is visible before the call resolves.
	require.NotNil(t, c.Draft())
	assert.Equal(t, "buy milk", c.Draft().Title)
	assert.True(t, c.InputDisabled())
	assert.True(t, c.Snapshot().ShowFooter())

	require.NoError(t, Drive(context.Background(), c, cmd))

	if diff := cmp.Diff([]model.Todo{todo(1, "buy milk", false)}, c.Todos()); diff != "" {
		t.Fatalf("todos mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, c.Draft())
	assert.Empty(t, c.Title())
	assert.False(t, c.InputDisabled())
	assert.Equal(t, ErrNone, c.Err())

	_, _, creates := fake.calls()
	assert.Equal(t, 1, creates)
	assert.Equal(t, model.NewTodo{UserID: owner, Title: "buy milk"}, fake.createCalls[0])
}

func Test_Create_Rejects_Blank_Title_Without_Network(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"", "   ", "\t\n"} {
		fake := newFake()
		c := New(fake, Options{OwnerID: owner})

		cmd := c.Create(title)

		assert.Nil(t, cmd, "zero error delay schedules no expiry")
		assert.Equal(t, ErrValidation, c.Err())
		assert.Nil(t, c.Draft())
		_, _, creates := fake.calls()
		assert.Zero(t, creates)
	}
}

func Test_Create_Failure_Drops_Draft_And_Keeps_Input(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)
	fake.failCreate = true

	require.NoError(t, Drive(context.Background(), c, c.Create("retry me")))

	assert.Equal(t, ErrCreate, c.Err())
	assert.Nil(t, c.Draft())
	assert.Equal(t, "retry me", c.Title())
	assert.Equal(t, []int{1}, ids(c.Todos()))
	assert.False(t, c.InputDisabled())
}

func Test_Create_Settling_After_A_Reload_Does_Not_Duplicate(t *testing.T) {
	t.Parallel()

	fake := newFake()
	c := loadedController(t, fake)

	create := c.Create("x")
	load := c.Load()
	created := create()
	c.Update(load())
	c.Update(created)

	assert.Equal(t, []int{1}, ids(c.Todos()))
	assert.Equal(t, "x", c.Todos()[0].Title)
	assert.Nil(t, c.Draft())
	assert.Empty(t, c.Title())
}

func Test_Create_Is_Refused_While_A_Draft_Is_Pending(t *testing.T) {
	t.Parallel()

	fake := newFake()
	c := loadedController(t, fake)

	first := c.Create("one")
	require.NotNil(t, first)
	assert.Nil(t, c.Create("two"))

	require.NoError(t, Drive(context.Background(), c, first))
	_, _, creates := fake.calls()
	assert.Equal(t, 1, creates)
	assert.Equal(t, []int{1}, ids(c.Todos()))
}

func Test_Remove_Success_Removes_Only_That_Id(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", false), todo(3, "c", true))
	c := loadedController(t, fake)

	cmd := c.Remove(2)
	assert.True(t, c.IsProcessing(2))

	require.NoError(t, Drive(context.Background(), c, cmd))

	assert.Equal(t, []int{1, 3}, ids(c.Todos()))
	assert.False(t, c.IsProcessing(2))
}

func Test_Remove_Failure_Leaves_Collection_Unchanged(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", false))
	c := loadedController(t, fake)
	before := c.Todos()
	fake.failDelete[2] = true

	require.NoError(t, Drive(context.Background(), c, c.Remove(2)))

	assert.Empty(t, cmp.Diff(before, c.Todos()))
	assert.Equal(t, ErrDelete, c.Err())
	assert.Zero(t, c.Snapshot().Processing.Len())
}

func Test_Second_Action_On_Processing_Id_Is_Ignored(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)

	cmd := c.ToggleOne(1)
	require.NotNil(t, cmd)
	assert.Nil(t, c.ToggleOne(1))
	assert.Nil(t, c.Remove(1))

	c.StartEdit(1)
	assert.Zero(t, c.EditingID(), "cannot edit while a mutation is in flight")

	require.NoError(t, Drive(context.Background(), c, cmd))
	updates, deletes, _ := fake.calls()
	assert.Equal(t, 1, updates)
	assert.Zero(t, deletes)
	assert.True(t, c.Todos()[0].Completed)
}

func Test_RemoveCompleted_Deletes_Completed_In_Parallel_With_Partial_Failure(t *testing.T) {
	t.Parallel()

	fake := newFake(
		todo(1, "a", true),
		todo(2, "b", false),
		todo(3, "c", true),
		todo(4, "d", true),
		todo(5, "e", false),
	)
	c := loadedController(t, fake)
	fake.failDelete[3] = true

	cmd := c.RemoveCompleted()
	require.NotNil(t, cmd)
	assert.True(t, c.Loading())
	assert.Equal(t, []int{1, 3, 4}, c.Snapshot().Processing.IDs())

	require.NoError(t, Drive(context.Background(), c, cmd))

	_, deletes, _ := fake.calls()
	assert.Equal(t, 3, deletes)
	assert.Equal(t, []int{2, 3, 5}, ids(c.Todos()))
	assert.Equal(t, ErrDelete, c.Err())
	assert.False(t, c.Loading())
	assert.Zero(t, c.Snapshot().Processing.Len())
}

func Test_RemoveCompleted_Holds_Loading_Until_Every_Call_Settles(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", true), todo(2, "b", true))
	c := loadedController(t, fake)
	fake.failDelete[1] = true

	cmds := batchCmds(t, c.RemoveCompleted())
	require.Len(t, cmds, 2)

	c.Update(cmds[0]())
	assert.True(t, c.Loading(), "one delete still outstanding")
	assert.Equal(t, ErrDelete, c.Err(), "failure does not short-circuit the bulk")

	c.Update(cmds[1]())
	assert.False(t, c.Loading())
	assert.Equal(t, []int{1}, ids(c.Todos()))
}

func Test_RemoveCompleted_With_Nothing_Completed_Dispatches_Nothing(t *testing.T) {
	t.Parallel()

	c := loadedController(t, newFake(todo(1, "a", false)))
	assert.Nil(t, c.RemoveCompleted())
	assert.False(t, c.Loading())
}

func Test_ToggleAll_Completes_Active_Then_Flips_All_Back(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", true))
	c := loadedController(t, fake)

	require.NoError(t, Drive(context.Background(), c, c.ToggleAll()))

	assert.Equal(t, []model.Todo{todo(1, "a", true), todo(2, "b", true)}, c.Todos())
	updates, _, _ := fake.calls()
	assert.Equal(t, 1, updates, "only the active record is sent")
	assert.True(t, c.Snapshot().ToggleAllActive())

	require.NoError(t, Drive(context.Background(), c, c.ToggleAll()))

	assert.Equal(t, []model.Todo{todo(1, "a", false), todo(2, "b", false)}, c.Todos())
	updates, _, _ = fake.calls()
	assert.Equal(t, 3, updates)
	assert.False(t, c.Loading())
}

func Test_ToggleAll_Partial_Failure_Settles_And_Keeps_Failed_Record(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", false), todo(3, "c", false))
	c := loadedController(t, fake)
	fake.failUpdate[2] = true

	c.StartEdit(2)
	cmd := c.ToggleAll()
	require.NotNil(t, cmd)
	assert.True(t, c.Loading())

	require.NoError(t, Drive(context.Background(), c, cmd))

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Zero(t, snap.Processing.Len())
	assert.Equal(t, ErrUpdate, snap.Err)
	assert.Equal(t, []model.Todo{todo(1, "a", true), todo(2, "b", false), todo(3, "c", true)}, snap.Todos)
	assert.Zero(t, snap.EditingID, "a completion failure does not reopen the edit session")
}

func Test_ToggleAll_On_Empty_Collection_Is_A_Noop(t *testing.T) {
	t.Parallel()

	c := loadedController(t, newFake())
	assert.Nil(t, c.ToggleAll())
	assert.False(t, c.Loading())
}

func Test_Patch_Replaces_In_Place(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", false), todo(3, "c", false))
	c := loadedController(t, fake)

	require.NoError(t, Drive(context.Background(), c, c.Patch(2, model.TitlePatch("  bee "))))

	assert.Equal(t, []model.Todo{todo(1, "a", false), todo(2, "bee", false), todo(3, "c", false)}, c.Todos())
}

func Test_Unchanged_Title_Sends_Nothing(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)

	assert.Nil(t, c.Patch(1, model.TitlePatch("a")))

	c.StartEdit(1)
	require.Equal(t, 1, c.EditingID())
	assert.Nil(t, c.CommitEdit(1, " a "))
	assert.Zero(t, c.EditingID(), "edit session closes")

	updates, deletes, _ := fake.calls()
	assert.Zero(t, updates)
	assert.Zero(t, deletes)
}

func Test_CommitEdit_Empty_Title_Deletes(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false), todo(2, "b", false))
	c := loadedController(t, fake)

	c.StartEdit(1)
	require.NoError(t, Drive(context.Background(), c, c.CommitEdit(1, "   ")))

	updates, deletes, _ := fake.calls()
	assert.Zero(t, updates)
	assert.Equal(t, 1, deletes)
	assert.Equal(t, []int{2}, ids(c.Todos()))
	assert.Zero(t, c.EditingID())
}

func Test_Patch_Empty_Title_Deletes(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)

	require.NoError(t, Drive(context.Background(), c, c.Patch(1, model.TitlePatch(""))))

	updates, deletes, _ := fake.calls()
	assert.Zero(t, updates)
	assert.Equal(t, 1, deletes)
	assert.Empty(t, c.Todos())
}

func Test_Title_Update_Failure_Reopens_Edit_Session(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)
	fake.failUpdate[1] = true

	c.StartEdit(1)
	c.SetEditTitle("new title")
	cmd := c.CommitEdit(1, "new title")
	require.NotNil(t, cmd)
	assert.Zero(t, c.EditingID(), "closed while the request is in flight")
	assert.True(t, c.IsProcessing(1))

	require.NoError(t, Drive(context.Background(), c, cmd))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.EditingID)
	assert.Equal(t, "new title", snap.EditTitle)
	assert.Equal(t, ErrUpdate, snap.Err)
	assert.Equal(t, "a", snap.Todos[0].Title)
	assert.False(t, c.IsProcessing(1))
}

func Test_Completion_Update_Failure_Does_Not_Open_Edit(t *testing.T) {
	t.Parallel()

	fake := newFake(todo(1, "a", false))
	c := loadedController(t, fake)
	fake.failUpdate[1] = true

	require.NoError(t, Drive(context.Background(), c, c.ToggleOne(1)))

	assert.Equal(t, ErrUpdate, c.Err())
	assert.Zero(t, c.EditingID())
	assert.False(t, c.Todos()[0].Completed)
	assert.False(t, c.IsProcessing(1))
}

func Test_Error_Expiry_Only_Clears_The_Latest_Error(t *testing.T) {
	t.Parallel()

	c := New(newFake(), Options{OwnerID: owner, ErrorDelay: 5 * time.Millisecond})

	first := c.Create("")
	second := c.Create(" ")
	require.NotNil(t, first)
	require.NotNil(t, second)

	c.Update(first())
	assert.Equal(t, ErrValidation, c.Err(), "stale expiry is ignored")

	c.Update(second())
	assert.Equal(t, ErrNone, c.Err())
}

func Test_Error_Is_Cleared_By_Dismiss_And_Typing(t *testing.T) {
	t.Parallel()

	c := New(newFake(), Options{OwnerID: owner})

	c.Create("")
	require.Equal(t, ErrValidation, c.Err())
	c.DismissError()
	assert.Equal(t, ErrNone, c.Err())

	c.Create("")
	c.SetTitle("x")
	assert.Equal(t, ErrNone, c.Err())
	assert.Equal(t, "x", c.Title())
}

func Test_Snapshot_Applies_Filter_And_Footer_Rules(t *testing.T) {
	t.Parallel()

	c := loadedController(t, newFake(todo(1, "a", false), todo(2, "b", true)))

	c.SelectFilter(model.FilterCompleted)
	snap := c.Snapshot()
	assert.Equal(t, []int{2}, ids(snap.Visible))
	assert.Equal(t, model.Counts{Total: 2, Active: 1, Completed: 1}, snap.Counts)
	assert.True(t, snap.ShowFooter())
	assert.False(t, snap.ToggleAllActive())

	empty := New(newFake(), Options{OwnerID: owner}).Snapshot()
	assert.False(t, empty.ShowFooter())
	assert.False(t, empty.ToggleAllActive())
}
