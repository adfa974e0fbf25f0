package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *Store) {
	t.Helper()

	st, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(NewHandler(st, opts))
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func Test_Store_Assigns_Positive_Increasing_Ids(t *testing.T) {
	t.Parallel()

	st, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	a, err := st.Create(ctx, model.NewTodo{UserID: 1, Title: "a"})
	require.NoError(t, err)
	b, err := st.Create(ctx, model.NewTodo{UserID: 1, Title: "b"})
	require.NoError(t, err)
	assert.Positive(t, a.ID)
	assert.Greater(t, b.ID, a.ID)

	require.NoError(t, st.Delete(ctx, b.ID))
	c, err := st.Create(ctx, model.NewTodo{UserID: 1, Title: "c"})
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID, "ids are never reused")

	_, err = st.Update(ctx, 999, model.CompletedPatch(true))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, st.Delete(ctx, 999), ErrNotFound)
}

func Test_Handler_Validates_Requests(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Options{})

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "ListWithoutUser", method: http.MethodGet, path: "/todos", want: http.StatusBadRequest},
		{name: "CreateBlankTitle", method: http.MethodPost, path: "/todos", body: `{"userId":1,"title":"  "}`, want: http.StatusBadRequest},
		{name: "CreateNoUser", method: http.MethodPost, path: "/todos", body: `{"title":"x"}`, want: http.StatusBadRequest},
		{name: "CreateBadJSON", method: http.MethodPost, path: "/todos", body: `{`, want: http.StatusBadRequest},
		{name: "PatchUnknown", method: http.MethodPatch, path: "/todos/42", body: `{"completed":true}`, want: http.StatusNotFound},
		{name: "PatchBlankTitle", method: http.MethodPatch, path: "/todos/42", body: `{"title":""}`, want: http.StatusBadRequest},
		{name: "DeleteUnknown", method: http.MethodDelete, path: "/todos/42", want: http.StatusNotFound},
		{name: "NonNumericId", method: http.MethodDelete, path: "/todos/abc", want: http.StatusNotFound},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			resp := do(t, testCase.method, srv.URL+testCase.path, testCase.body)
			assert.Equal(t, testCase.want, resp.StatusCode)
		})
	}
}

func Test_Handler_Echoes_Request_Id(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Options{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/todos?userId=1", nil)
	require.NoError(t, err)
	req.Header.Set(api.RequestIDHeader, "req-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-1", resp.Header.Get(api.RequestIDHeader))

	resp2 := do(t, http.MethodGet, srv.URL+"/todos?userId=1", "")
	assert.NotEmpty(t, resp2.Header.Get(api.RequestIDHeader))
}

func Test_Handler_Injects_Failures_Only_On_Mutations(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Options{FailRate: 0.5, Rand: func() float64 { return 0.1 }})

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/todos?userId=1", "").StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable,
		do(t, http.MethodPost, srv.URL+"/todos", `{"userId":1,"title":"x"}`).StatusCode)
}
