package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/todosync/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// TitleRequired is the error body returned for an update without a title,
// matching the server's request binding.
const TitleRequired = "Key: 'Todo.Title' Error:Field validation for 'Title' failed on the 'required' tag"

// FakeAPI is an in-process stand-in for the todo API, mounted at /api/v1.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	users      map[string]*fakeUser
	tokens     map[string]uint
	todos      []models.Todo
	nextUserID uint
	nextTodoID uint
	requests   []RecordedRequest
	overrides  []override
}

// RecordedRequest is one request seen by the fake.
type RecordedRequest struct {
	Method        string
	Route         string // mux path template, e.g. /api/v1/todos/{id}
	Path          string
	Authorization string
	RequestID     string
	UserAgent     string
	Body          string
}

type fakeUser struct {
	user     models.User
	password string
}

type override struct {
	method string
	route  string
	status int
	body   interface{}
}

// NewFakeAPI starts the fake; it is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:      make(map[string]*fakeUser),
		tokens:     make(map[string]uint),
		todos:      make([]models.Todo, 0),
		nextUserID: 1,
		nextTodoID: 1,
	}

	r := mux.NewRouter()
	r.Use(f.record, f.applyOverrides)
	v1 := r.PathPrefix(apiPrefix).Subrouter()
	v1.HandleFunc("/register", f.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/login", f.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/logout", f.authed(f.handleLogout)).Methods(http.MethodPost)
	v1.HandleFunc("/user-profile", f.authed(f.handleProfile)).Methods(http.MethodGet)
	v1.HandleFunc("/todos", f.authed(f.handleListTodos)).Methods(http.MethodGet)
	v1.HandleFunc("/todos", f.authed(f.handleCreateTodo)).Methods(http.MethodPost)
	v1.HandleFunc("/todos/{id:[0-9]+}", f.authed(f.handleGetTodo)).Methods(http.MethodGet)
	v1.HandleFunc("/todos/{id:[0-9]+}", f.authed(f.handleUpdateTodo)).Methods(http.MethodPut)
	v1.HandleFunc("/todos/{id:[0-9]+}", f.authed(f.handleDeleteTodo)).Methods(http.MethodDelete)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base URL, including /api/v1.
func (f *FakeAPI) URL() string {
	return f.Server.URL + apiPrefix
}

// Close stops the server; later requests fail at the transport level.
func (f *FakeAPI) Close() {
	f.Server.Close()
}

// AddUser creates an account directly.
func (f *FakeAPI) AddUser(username, email, password string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(username, email, password)
}

func (f *FakeAPI) addUserLocked(username, email, password string) models.User {
	now := time.Now().UTC().Truncate(time.Second)
	u := models.User{
		ID:        f.nextUserID,
		Username:  username,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.nextUserID++
	f.users[username] = &fakeUser{user: u, password: password}
	return u
}

// IssueToken returns a valid token for an existing user.
func (f *FakeAPI) IssueToken(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		panic(fmt.Sprintf("fake api: unknown user %q", username))
	}
	token := uuid.NewString()
	f.tokens[token] = u.user.ID
	return token
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	f.tokens = make(map[string]uint)
	f.mu.Unlock()
}

// SeedTodo stores a todo for userID and returns it with its assigned id.
func (f *FakeAPI) SeedTodo(userID uint, title, description string, completed bool) models.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertTodoLocked(userID, title, description, completed)
}

func (f *FakeAPI) insertTodoLocked(userID uint, title, description string, completed bool) models.Todo {
	now := time.Now().UTC().Truncate(time.Second)
	todo := models.Todo{
		ID:          f.nextTodoID,
		Title:       title,
		Description: description,
		Completed:   completed,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.nextTodoID++
	f.todos = append(f.todos, todo)
	return todo
}

// Todos returns the server-side todos for userID in server order.
func (f *FakeAPI) Todos(userID uint) []models.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Todo, 0)
	for _, t := range f.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// Override makes the next request matching method and route (the path
// template below /api/v1, e.g. "/todos/{id}") answer with status and body.
func (f *FakeAPI) Override(method, route string, status int, body interface{}) {
	f.mu.Lock()
	f.overrides = append(f.overrides, override{method: method, route: route, status: status, body: body})
	f.mu.Unlock()
}

// Requests returns every request seen so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// CountRequests counts requests matching method and route.
func (f *FakeAPI) CountRequests(method, route string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Route == route {
			n++
		}
	}
	return n
}

// middleware

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAndRestore(r)
		}
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Route:         routeOf(r),
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			UserAgent:     r.UserAgent(),
			Body:          string(body),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) applyOverrides(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeOf(r)
		f.mu.Lock()
		for i, o := range f.overrides {
			if o.method == r.Method && o.route == route {
				f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
				f.mu.Unlock()
				writeJSON(w, o.status, o.body)
				return
			}
		}
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) authed(next func(http.ResponseWriter, *http.Request, uint)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header format must be Bearer {token}"})
			return
		}
		f.mu.Lock()
		userID, ok := f.tokens[parts[1]]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			return
		}
		next(w, r, userID)
	}
}

// handlers

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Email == "" || len(in.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid registration input"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[in.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username already exists"})
		return
	}
	for _, u := range f.users {
		if u.user.Email == in.Email {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already exists"})
			return
		}
	}
	f.addUserLocked(in.Username, in.Email, in.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[in.Username]
	if !ok || u.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	token := uuid.NewString()
	f.tokens[token] = u.user.ID
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       u.user.ID,
			"username": u.user.Username,
			"email":    u.user.Email,
		},
	})
}

func (f *FakeAPI) handleLogout(w http.ResponseWriter, r *http.Request, _ uint) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	delete(f.tokens, token)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (f *FakeAPI) handleProfile(w http.ResponseWriter, r *http.Request, userID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.user.ID == userID {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": map[string]interface{}{
					"id":        u.user.ID,
					"username":  u.user.Username,
					"email":     u.user.Email,
					"createdAt": u.user.CreatedAt,
					"updatedAt": u.user.UpdatedAt,
				},
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "User not found"})
}

func (f *FakeAPI) handleListTodos(w http.ResponseWriter, r *http.Request, userID uint) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": f.Todos(userID)})
}

func (f *FakeAPI) handleCreateTodo(w http.ResponseWriter, r *http.Request, userID uint) {
	var in models.NewTodo
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	f.mu.Lock()
	todo := f.insertTodoLocked(userID, in.Title, in.Description, false)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]interface{}{"data": todo})
}

func (f *FakeAPI) handleGetTodo(w http.ResponseWriter, r *http.Request, userID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findTodoLocked(r, userID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": f.todos[i]})
}

func (f *FakeAPI) handleUpdateTodo(w http.ResponseWriter, r *http.Request, userID uint) {
	var patch models.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if patch.Title == nil || *patch.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": TitleRequired})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findTodoLocked(r, userID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}
	todo := &f.todos[i]
	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Description != nil {
		todo.Description = *patch.Description
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	todo.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": *todo})
}

func (f *FakeAPI) handleDeleteTodo(w http.ResponseWriter, r *http.Request, userID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findTodoLocked(r, userID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}
	f.todos = append(f.todos[:i], f.todos[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"data": "Todo deleted successfully"})
}

func (f *FakeAPI) findTodoLocked(r *http.Request, userID uint) int {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return -1
	}
	for i, t := range f.todos {
		if t.ID == uint(id) && t.UserID == userID {
			return i
		}
	}
	return -1
}
