package handlers

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers
//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers
//go:generate mockgen -source=me.go -destination=me_mock.go -package=handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error answer.
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: Internal server error
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
