package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HandleFileServer returns a handler that serves static files
func HandleFileServer(fs http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Remove any query parameters
		path := r.URL.Path
		if idx := strings.Index(path, "?"); idx != -1 {
			path = path[:idx]
		}
		r.URL.Path = path

		switch {
		case strings.HasSuffix(path, ".js"):
			w.Header().Set("Content-Type", "application/javascript")
		case strings.HasSuffix(path, ".css"):
			w.Header().Set("Content-Type", "text/css")
		case strings.HasSuffix(path, ".html"):
			w.Header().Set("Content-Type", "text/html")
		}

		fs.ServeHTTP(w, r)
	}
}

// WriteJSON writes v as the JSON body of a response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write json response", slog.Any("err", err))
	}
}

// Failure is the body of every unsuccessful REST response.
type Failure struct {
	Status   string `json:"status"`
	Mensagem string `json:"mensagem"`
}

// Failure statuses.
const (
	StatusError   = "erro"
	StatusFailure = "falha"
)

// WriteFailure writes a Failure body. 404 responses carry the "falha" status, everything else "erro".
func WriteFailure(w http.ResponseWriter, code int, message string) {
	status := StatusError
	if code == http.StatusNotFound {
		status = StatusFailure
	}
	WriteJSON(w, code, Failure{Status: status, Mensagem: message})
}
