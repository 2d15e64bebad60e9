package logger

// Component-specific logger functions

// API returns a logger for HTTP client operations
func API() Logger {
	return WithField("component", "api")
}

// Auth returns a logger for the auth state container
func Auth() Logger {
	return WithField("component", "auth")
}

// Todos returns a logger for the todo state container
func Todos() Logger {
	return WithField("component", "todos")
}

// Credentials returns a logger for credential cache operations
func Credentials() Logger {
	return WithField("component", "credentials")
}

// Router returns a logger for navigation and route guarding
func Router() Logger {
	return WithField("component", "router")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
