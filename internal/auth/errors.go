package auth

import "fmt"

// Fallback messages used when the server gives no reason.
const (
	RegistrationFailed = "Registration failed"
	LoginFailed        = "Login failed"
)

// AuthError carries a human-readable message for a failed register or
// login, taken from the server's error body or a fixed fallback.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Detail includes the operation and underlying cause, for logs.
func (e *AuthError) Detail() string {
	return fmt.Sprintf("auth: %s: %s: %v", e.Op, e.Message, e.Err)
}
