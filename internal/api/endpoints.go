package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eleven-am/todosync/internal/models"
)

// Auth endpoints

func (c *Client) Register(ctx context.Context, username, email, password string) (*models.RegisterPayload, error) {
	var payload models.RegisterPayload
	req := models.RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/register", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginPayload, error) {
	var payload models.LoginPayload
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/login", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/logout", nil, nil)
}

// CurrentUser fetches the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var env models.Envelope[*models.User]
	if err := c.Do(ctx, http.MethodGet, "/user-profile", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("api: GET /user-profile: response has no data")
	}
	return env.Data, nil
}

// Todo endpoints

// ListTodos returns the user's todos in server order, never nil.
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var env models.Envelope[[]models.Todo]
	if err := c.Do(ctx, http.MethodGet, "/todos", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []models.Todo{}, nil
	}
	return env.Data, nil
}

func (c *Client) GetTodo(ctx context.Context, id uint) (*models.Todo, error) {
	var env models.Envelope[*models.Todo]
	path := todoPath(id)
	if err := c.Do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("api: GET %s: response has no data", path)
	}
	return env.Data, nil
}

func (c *Client) CreateTodo(ctx context.Context, todo models.NewTodo) (*models.Todo, error) {
	var env models.Envelope[*models.Todo]
	if err := c.Do(ctx, http.MethodPost, "/todos", todo, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("api: POST /todos: response has no data")
	}
	return env.Data, nil
}

// UpdateTodo sends a partial update and returns the raw "data" object so
// the caller can merge only the fields the server sent back.
func (c *Client) UpdateTodo(ctx context.Context, id uint, patch models.TodoPatch) (json.RawMessage, error) {
	var env models.Envelope[json.RawMessage]
	if err := c.Do(ctx, http.MethodPut, todoPath(id), patch, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id uint) error {
	return c.Do(ctx, http.MethodDelete, todoPath(id), nil, nil)
}

func todoPath(id uint) string {
	return fmt.Sprintf("/todos/%d", id)
}
