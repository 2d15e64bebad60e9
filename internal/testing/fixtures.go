package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/eleven-am/todosync/pkg/todosync"
	"github.com/gorilla/mux"
)

const apiPrefix = todosync.APIBasePath

// routeOf returns the matched mux template with the API prefix removed,
// e.g. "/todos/{id}".
func routeOf(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	tmpl = strings.TrimPrefix(tmpl, apiPrefix)
	return strings.Replace(tmpl, "{id:[0-9]+}", "{id}", 1)
}

func readAndRestore(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if raw, ok := body.(json.RawMessage); ok {
		w.Write(raw)
		return
	}
	json.NewEncoder(w).Encode(body)
}
