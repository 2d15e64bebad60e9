package todos

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/internal/models"
	apitest "github.com/eleven-am/todosync/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI answers from canned values and records calls.
type stubAPI struct {
	list      []models.Todo
	listErr   error
	get       *models.Todo
	getErr    error
	created   *models.Todo
	createErr error
	updateRaw json.RawMessage
	updateErr error
	deleteErr error

	gate    chan struct{}
	patches []models.TodoPatch
	calls   int
}

func (s *stubAPI) wait() {
	s.calls++
	if s.gate != nil {
		<-s.gate
	}
}

func (s *stubAPI) ListTodos(ctx context.Context) ([]models.Todo, error) {
	s.wait()
	return s.list, s.listErr
}

func (s *stubAPI) GetTodo(ctx context.Context, id uint) (*models.Todo, error) {
	s.wait()
	return s.get, s.getErr
}

func (s *stubAPI) CreateTodo(ctx context.Context, todo models.NewTodo) (*models.Todo, error) {
	s.wait()
	return s.created, s.createErr
}

func (s *stubAPI) UpdateTodo(ctx context.Context, id uint, patch models.TodoPatch) (json.RawMessage, error) {
	s.wait()
	s.patches = append(s.patches, patch)
	return s.updateRaw, s.updateErr
}

func (s *stubAPI) DeleteTodo(ctx context.Context, id uint) error {
	s.wait()
	return s.deleteErr
}

func seeded(stub *stubAPI, todos ...models.Todo) *Store {
	store := NewStore(stub, logger.Nop())
	store.todos = append(store.todos, todos...)
	return store
}

func TestNewStore_Empty(t *testing.T) {
	store := NewStore(&stubAPI{}, logger.Nop())
	st := store.State()
	assert.NotNil(t, st.Todos)
	assert.Empty(t, st.Todos)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestFetchTodos(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces collection", func(t *testing.T) {
		stub := &stubAPI{list: []models.Todo{{ID: 2, Title: "b"}, {ID: 3, Title: "c"}}}
		store := seeded(stub, models.Todo{ID: 1, Title: "a"})

		store.FetchTodos(ctx)

		st := store.State()
		assert.Equal(t, []uint{2, 3}, ids(st.Todos))
		assert.Empty(t, st.Error)
		assert.False(t, st.Loading)
	})

	t.Run("nil list becomes empty", func(t *testing.T) {
		store := seeded(&stubAPI{}, models.Todo{ID: 1})
		store.FetchTodos(ctx)
		assert.NotNil(t, store.Todos())
		assert.Empty(t, store.Todos())
	})

	t.Run("network failure keeps prior collection", func(t *testing.T) {
		fake := apitest.NewFakeAPI(t)
		client := api.New(fake.URL(), credentials.NewMemoryWithToken("tok"), api.WithLogger(logger.Nop()))
		fake.Close()

		store := NewStore(client, logger.Nop())
		store.todos = []models.Todo{{ID: 7, Title: "keep me"}}

		store.FetchTodos(ctx)

		st := store.State()
		assert.Equal(t, []uint{7}, ids(st.Todos))
		assert.NotEmpty(t, st.Error)
		assert.Contains(t, st.Error, "network error")
		assert.False(t, st.Loading)
	})
}

func TestFetchTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns item without mutating", func(t *testing.T) {
		stub := &stubAPI{get: &models.Todo{ID: 9, Title: "remote"}}
		store := seeded(stub, models.Todo{ID: 1})

		got := store.FetchTodo(ctx, 9)
		require.NotNil(t, got)
		assert.Equal(t, "remote", got.Title)
		assert.Equal(t, []uint{1}, ids(store.Todos()))
	})

	t.Run("nil on failure", func(t *testing.T) {
		stub := &stubAPI{getErr: errors.New("boom")}
		store := seeded(stub)

		assert.Nil(t, store.FetchTodo(ctx, 9))
		assert.Equal(t, "boom", store.Err())
		assert.False(t, store.Loading())
	})
}

func TestCreateTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("appends server payload at end", func(t *testing.T) {
		fake := apitest.NewFakeAPI(t)
		fake.AddUser("alice", "alice@example.com", "secret1")
		client := api.New(fake.URL(), credentials.NewMemoryWithToken(fake.IssueToken("alice")), api.WithLogger(logger.Nop()))
		fake.Override(http.MethodPost, "/todos", http.StatusCreated, json.RawMessage(
			`{"data":{"id":5,"title":"x","description":"y","completed":false,"user_id":1}}`))

		store := NewStore(client, logger.Nop())
		store.todos = []models.Todo{{ID: 1, Title: "first"}}

		created, err := store.CreateTodo(ctx, "x", "y")
		require.NoError(t, err)

		todos := store.Todos()
		require.Len(t, todos, 2)
		assert.Equal(t, models.Todo{ID: 5, Title: "x", Description: "y", Completed: false, UserID: 1}, todos[1])
		assert.Equal(t, todos[1], *created)
	})

	t.Run("returns and records failure", func(t *testing.T) {
		stub := &stubAPI{createErr: errors.New("rejected")}
		store := seeded(stub, models.Todo{ID: 1})

		_, err := store.CreateTodo(ctx, "x", "y")
		assert.EqualError(t, err, "rejected")
		assert.Equal(t, "rejected", store.Err())
		assert.Len(t, store.Todos(), 1)
		assert.False(t, store.Loading())
	})
}

func TestUpdateTodo(t *testing.T) {
	ctx := context.Background()
	local := models.Todo{ID: 1, Title: "A", Description: "B", Completed: false}

	t.Run("shallow merge keeps absent fields", func(t *testing.T) {
		stub := &stubAPI{updateRaw: json.RawMessage(`{"id":1,"completed":true}`)}
		store := seeded(stub, local, models.Todo{ID: 2, Title: "other"})

		got, err := store.UpdateTodo(ctx, 1, models.TodoPatch{Completed: models.Bool(true)})
		require.NoError(t, err)

		want := models.Todo{ID: 1, Title: "A", Description: "B", Completed: true}
		assert.Equal(t, want, *got)
		todos := store.Todos()
		assert.Equal(t, want, todos[0])
		assert.Equal(t, "other", todos[1].Title)
	})

	t.Run("unknown local id still returns server item", func(t *testing.T) {
		stub := &stubAPI{updateRaw: json.RawMessage(`{"id":4,"title":"remote"}`)}
		store := seeded(stub, local)

		got, err := store.UpdateTodo(ctx, 4, models.TodoPatch{Title: models.String("remote")})
		require.NoError(t, err)
		assert.Equal(t, "remote", got.Title)
		assert.Equal(t, []models.Todo{local}, store.Todos())
	})

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{name: "missing data", raw: nil},
		{name: "missing id", raw: json.RawMessage(`{"completed":true}`)},
		{name: "zero id", raw: json.RawMessage(`{"id":0}`)},
		{name: "not an object", raw: json.RawMessage(`"Todo updated"`)},
		{name: "wrong field type", raw: json.RawMessage(`{"id":1,"completed":"yes"}`)},
	}
	for _, tt := range tests {
		t.Run("validation: "+tt.name, func(t *testing.T) {
			stub := &stubAPI{updateRaw: tt.raw}
			store := seeded(stub, local)

			_, err := store.UpdateTodo(ctx, 1, models.TodoPatch{Completed: models.Bool(true)})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, err.Error(), store.Err())
			assert.Equal(t, []models.Todo{local}, store.Todos())
			assert.False(t, store.Loading())
		})
	}

	t.Run("server error is returned", func(t *testing.T) {
		stub := &stubAPI{updateErr: &api.ServerError{Op: "PUT /todos/1", Status: 404, Message: "Todo not found"}}
		store := seeded(stub, local)

		_, err := store.UpdateTodo(ctx, 1, models.TodoPatch{})
		assert.ErrorIs(t, err, api.ErrNotFound)
		var verr *ValidationError
		assert.False(t, errors.As(err, &verr))
	})
}

func TestDeleteTodo(t *testing.T) {
	ctx := context.Background()

	stub := &stubAPI{}
	store := seeded(stub, models.Todo{ID: 1}, models.Todo{ID: 2}, models.Todo{ID: 3})
	require.NoError(t, store.DeleteTodo(ctx, 2))
	assert.Equal(t, []uint{1, 3}, ids(store.Todos()))

	stub.deleteErr = errors.New("nope")
	assert.Error(t, store.DeleteTodo(ctx, 1))
	assert.Equal(t, []uint{1, 3}, ids(store.Todos()))
	assert.Equal(t, "nope", store.Err())
}

func TestToggleCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is a no-op", func(t *testing.T) {
		stub := &stubAPI{getErr: errors.New("earlier failure")}
		store := seeded(stub, models.Todo{ID: 1, Title: "A"})
		store.FetchTodo(ctx, 1)
		before := store.State()
		calls := stub.calls

		got, err := store.ToggleCompletion(ctx, 99)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, before, store.State())
		assert.Equal(t, calls, stub.calls, "no request sent")
	})

	t.Run("re-sends title and description with the inverted flag", func(t *testing.T) {
		stub := &stubAPI{updateRaw: json.RawMessage(`{"id":1,"title":"A","description":"B","completed":true}`)}
		store := seeded(stub, models.Todo{ID: 1, Title: "A", Description: "B"})

		got, err := store.ToggleCompletion(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.Completed)

		require.Len(t, stub.patches, 1)
		p := stub.patches[0]
		require.NotNil(t, p.Title)
		assert.Equal(t, "A", *p.Title)
		require.NotNil(t, p.Description)
		assert.Equal(t, "B", *p.Description)
		require.NotNil(t, p.Completed)
		assert.True(t, *p.Completed)
	})

	t.Run("server requiring a title accepts the toggle", func(t *testing.T) {
		fake := apitest.NewFakeAPI(t)
		alice := fake.AddUser("alice", "alice@example.com", "secret1")
		fake.SeedTodo(alice.ID, "A", "B", false)
		client := api.New(fake.URL(), credentials.NewMemoryWithToken(fake.IssueToken("alice")), api.WithLogger(logger.Nop()))
		store := NewStore(client, logger.Nop())

		store.FetchTodos(ctx)
		got, err := store.ToggleCompletion(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		assert.Empty(t, store.Err())

		server := fake.Todos(alice.ID)
		require.Len(t, server, 1)
		assert.True(t, server[0].Completed)
		assert.Equal(t, "A", server[0].Title)
		assert.Equal(t, "B", server[0].Description)
		local, _ := store.Find(1)
		assert.True(t, local.Completed)
	})
}

func TestUpdateTodo_TitleFromMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrored title fills a patch without one", func(t *testing.T) {
		stub := &stubAPI{updateRaw: json.RawMessage(`{"id":1,"completed":true}`)}
		store := seeded(stub, models.Todo{ID: 1, Title: "A", Description: "B"})

		_, err := store.UpdateTodo(ctx, 1, models.TodoPatch{Completed: models.Bool(true)})
		require.NoError(t, err)

		require.Len(t, stub.patches, 1)
		require.NotNil(t, stub.patches[0].Title)
		assert.Equal(t, "A", *stub.patches[0].Title)
		assert.Nil(t, stub.patches[0].Description)
	})

	t.Run("explicit title wins", func(t *testing.T) {
		stub := &stubAPI{updateRaw: json.RawMessage(`{"id":1,"title":"C"}`)}
		store := seeded(stub, models.Todo{ID: 1, Title: "A"})

		_, err := store.UpdateTodo(ctx, 1, models.TodoPatch{Title: models.String("C")})
		require.NoError(t, err)
		assert.Equal(t, "C", *stub.patches[0].Title)
	})

	t.Run("unknown entry without title is rejected by the server", func(t *testing.T) {
		fake := apitest.NewFakeAPI(t)
		alice := fake.AddUser("alice", "alice@example.com", "secret1")
		fake.SeedTodo(alice.ID, "A", "", false)
		client := api.New(fake.URL(), credentials.NewMemoryWithToken(fake.IssueToken("alice")), api.WithLogger(logger.Nop()))
		store := NewStore(client, logger.Nop())

		_, err := store.UpdateTodo(ctx, 1, models.TodoPatch{Completed: models.Bool(true)})
		require.Error(t, err)
		assert.Contains(t, store.Err(), apitest.TitleRequired)
		assert.False(t, fake.Todos(alice.ID)[0].Completed)
	})
}

func TestDerivedViews(t *testing.T) {
	store := seeded(&stubAPI{},
		models.Todo{ID: 1, Completed: true},
		models.Todo{ID: 2},
		models.Todo{ID: 3, Completed: true},
	)
	assert.Equal(t, []uint{1, 3}, ids(store.Completed()))
	assert.Equal(t, []uint{2}, ids(store.Pending()))

	found, ok := store.Find(2)
	assert.True(t, ok)
	assert.Equal(t, uint(2), found.ID)
	_, ok = store.Find(4)
	assert.False(t, ok)

	store.Reset()
	assert.Empty(t, store.Todos())
}

func TestLoadingAndErrorLifecycle(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{gate: make(chan struct{}), listErr: errors.New("first failure")}
	store := seeded(stub)

	done := make(chan struct{})
	go func() {
		store.FetchTodos(ctx)
		close(done)
	}()

	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	stub.gate <- struct{}{}
	<-done
	assert.False(t, store.Loading())
	assert.Equal(t, "first failure", store.Err())

	// the next operation clears the error as soon as it starts
	stub.listErr = nil
	stub.list = []models.Todo{{ID: 1}}
	done = make(chan struct{})
	go func() {
		store.FetchTodos(ctx)
		close(done)
	}()
	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	assert.Empty(t, store.Err())
	stub.gate <- struct{}{}
	<-done
	assert.False(t, store.Loading())
}

// TestMirrorMatchesServer replays random create/update/delete sequences and
// checks the local ids always equal the server's.
func TestMirrorMatchesServer(t *testing.T) {
	ctx := context.Background()
	fake := apitest.NewFakeAPI(t)
	user := fake.AddUser("alice", "alice@example.com", "secret1")
	client := api.New(fake.URL(), credentials.NewMemoryWithToken(fake.IssueToken("alice")), api.WithLogger(logger.Nop()))
	store := NewStore(client, logger.Nop())

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 60; step++ {
		local := store.Todos()
		switch op := rng.Intn(3); {
		case op == 0 || len(local) == 0:
			_, err := store.CreateTodo(ctx, "task", "generated")
			require.NoError(t, err)
		case op == 1:
			target := local[rng.Intn(len(local))]
			_, err := store.UpdateTodo(ctx, target.ID, models.TodoPatch{Completed: models.Bool(!target.Completed)})
			require.NoError(t, err)
		default:
			target := local[rng.Intn(len(local))]
			require.NoError(t, store.DeleteTodo(ctx, target.ID))
		}

		assert.Equal(t, sortedIDs(fake.Todos(user.ID)), sortedIDs(store.Todos()), "step %d", step)
	}

	server := fake.Todos(user.ID)
	for _, local := range store.Todos() {
		for _, remote := range server {
			if remote.ID == local.ID {
				assert.Equal(t, remote.Completed, local.Completed)
			}
		}
	}
}

func ids(todos []models.Todo) []uint {
	out := make([]uint, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

func sortedIDs(todos []models.Todo) []uint {
	out := ids(todos)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
