package models

import (
	"encoding/json"
	"time"
)

// User is the account record returned by the profile endpoint.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON accepts both snake_case and camelCase timestamps; the
// profile endpoint emits createdAt/updatedAt while the rest of the API
// uses created_at/updated_at.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		CreatedAtCamel *time.Time `json:"createdAt"`
		UpdatedAtCamel *time.Time `json:"updatedAt"`
	}{plain: (*plain)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.CreatedAtCamel != nil && u.CreatedAt.IsZero() {
		u.CreatedAt = *aux.CreatedAtCamel
	}
	if aux.UpdatedAtCamel != nil && u.UpdatedAt.IsZero() {
		u.UpdatedAt = *aux.UpdatedAtCamel
	}
	return nil
}

// Todo is a single task owned by a user.
type Todo struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      uint      `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTodo is the create payload.
type NewTodo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TodoPatch is a partial update; nil fields are not sent.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload is the body returned by POST /register.
type RegisterPayload struct {
	Message string `json:"message"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginPayload is the body returned by POST /login. The embedded user is a
// summary (no timestamps); the full record comes from the profile endpoint.
type LoginPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Envelope is the {"data": ...} wrapper used by most endpoints.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the {"error": "..."} body returned on failures.
type ErrorBody struct {
	Error string `json:"error"`
}

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }
