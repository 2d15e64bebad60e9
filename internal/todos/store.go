package todos

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/internal/models"
)

// API is the subset of the HTTP client the todo store needs.
type API interface {
	ListTodos(ctx context.Context) ([]models.Todo, error)
	GetTodo(ctx context.Context, id uint) (*models.Todo, error)
	CreateTodo(ctx context.Context, todo models.NewTodo) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id uint, patch models.TodoPatch) (json.RawMessage, error)
	DeleteTodo(ctx context.Context, id uint) error
}

// State is a snapshot of the todo container.
type State struct {
	Todos   []models.Todo
	Loading bool
	Error   string
}

// Store is the local mirror of the user's todos.
//
// Fields are guarded by a mutex, but operations are not serialized:
// concurrent calls interleave and the last response to arrive wins.
// Loading stays true while any operation is in flight.
type Store struct {
	api    API
	logger logger.Logger

	mu       sync.RWMutex
	todos    []models.Todo
	inflight int
	lastErr  string
}

func NewStore(client API, log logger.Logger) *Store {
	if log == nil {
		log = logger.Todos()
	}
	return &Store{
		api:    client,
		logger: log,
		todos:  make([]models.Todo, 0),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Todos:   s.copyLocked(),
		Loading: s.inflight > 0,
		Error:   s.lastErr,
	}
}

// Todos returns a copy of the collection in server order.
func (s *Store) Todos() []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Err returns the message of the most recent failure, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Completed returns the finished todos.
func (s *Store) Completed() []models.Todo {
	return s.filter(func(t models.Todo) bool { return t.Completed })
}

// Pending returns the unfinished todos.
func (s *Store) Pending() []models.Todo {
	return s.filter(func(t models.Todo) bool { return !t.Completed })
}

// Find looks a todo up in the local mirror.
func (s *Store) Find(id uint) (models.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.todos[i], true
	}
	return models.Todo{}, false
}

// Reset empties the mirror, e.g. after the user signs out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.todos = make([]models.Todo, 0)
	s.lastErr = ""
	s.mu.Unlock()
}

// FetchTodos replaces the collection with the server's. Failures are
// recorded in Err and leave the collection untouched.
func (s *Store) FetchTodos(ctx context.Context) {
	s.begin()
	defer s.end()

	todos, err := s.api.ListTodos(ctx)
	if err != nil {
		s.fail("fetch", err)
		return
	}
	if todos == nil {
		todos = make([]models.Todo, 0)
	}

	s.mu.Lock()
	s.todos = todos
	s.mu.Unlock()
	s.logger.Debug("Fetched todos", "count", len(todos))
}

// FetchTodo returns one todo from the server without touching the
// collection, or nil on failure (recorded in Err).
func (s *Store) FetchTodo(ctx context.Context, id uint) *models.Todo {
	s.begin()
	defer s.end()

	todo, err := s.api.GetTodo(ctx, id)
	if err != nil {
		s.fail("fetch one", err, "id", id)
		return nil
	}
	return todo
}

// CreateTodo creates a todo and appends the server's copy.
func (s *Store) CreateTodo(ctx context.Context, title, description string) (*models.Todo, error) {
	s.begin()
	defer s.end()

	todo, err := s.api.CreateTodo(ctx, models.NewTodo{Title: title, Description: description})
	if err != nil {
		s.fail("create", err)
		return nil, err
	}

	s.mu.Lock()
	s.todos = append(s.todos, *todo)
	s.mu.Unlock()
	s.logger.Debug("Created todo", "id", todo.ID)

	out := *todo
	return &out, nil
}

// UpdateTodo sends a partial update and merges the server's response into
// the local entry: fields present in the response override, the rest are
// kept. The server requires a title on every update, so a patch without
// one carries the mirrored title when the entry is known.
func (s *Store) UpdateTodo(ctx context.Context, id uint, patch models.TodoPatch) (*models.Todo, error) {
	if patch.Title == nil {
		if cur, ok := s.Find(id); ok {
			patch.Title = models.String(cur.Title)
		}
	}

	s.begin()
	defer s.end()

	raw, err := s.api.UpdateTodo(ctx, id, patch)
	if err != nil {
		s.fail("update", err, "id", id)
		return nil, err
	}

	var probe struct {
		ID uint `json:"id"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &probe) != nil || probe.ID == 0 {
		verr := &ValidationError{Op: "update", Reason: "updated todo has no valid id"}
		s.fail("update", verr, "id", id)
		return nil, verr
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	var merged models.Todo
	if i >= 0 {
		merged = s.todos[i]
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		s.mu.Unlock()
		verr := &ValidationError{Op: "update", Reason: err.Error()}
		s.fail("update", verr, "id", id)
		return nil, verr
	}
	if i >= 0 {
		s.todos[i] = merged
	}
	s.mu.Unlock()

	return &merged, nil
}

// DeleteTodo deletes a todo and drops it from the collection.
func (s *Store) DeleteTodo(ctx context.Context, id uint) error {
	s.begin()
	defer s.end()

	if err := s.api.DeleteTodo(ctx, id); err != nil {
		s.fail("delete", err, "id", id)
		return err
	}

	s.mu.Lock()
	kept := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	s.mu.Unlock()
	return nil
}

// ToggleCompletion flips the completed flag of a locally known todo,
// re-sending its title and description. An unknown id is a no-op and
// returns (nil, nil).
func (s *Store) ToggleCompletion(ctx context.Context, id uint) (*models.Todo, error) {
	todo, ok := s.Find(id)
	if !ok {
		return nil, nil
	}
	return s.UpdateTodo(ctx, id, models.TodoPatch{
		Title:       models.String(todo.Title),
		Description: models.String(todo.Description),
		Completed:   models.Bool(!todo.Completed),
	})
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) fail(op string, err error, keysAndValues ...interface{}) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Warn("Todo operation failed", append([]interface{}{"op", op, "error", err}, keysAndValues...)...)
}

func (s *Store) filter(keep func(models.Todo) bool) []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Todo, 0)
	for _, t := range s.todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) indexLocked(id uint) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copyLocked() []models.Todo {
	out := make([]models.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}
