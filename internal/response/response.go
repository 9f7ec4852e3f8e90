// Package response writes the JSON envelopes shared by every HTTP route.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

func JSON(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, envelope{Success: true, Data: data, Message: message})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, status, envelope{
		Success: false,
		Data:    nil,
		Error: &Error{
			StatusCode: status,
			Message:    message,
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			Path:       r.URL.Path,
		},
	})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
