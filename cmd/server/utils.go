package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lychee-technology/roster"
)

const maxBodyBytes = 1 << 20

// parseID extracts {id} from <prefix>{id}. Nested paths are rejected.
func parseID(path, prefix string) (string, error) {
	id := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid path format")
	}
	return id, nil
}

// APIResponse is the standard response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeSaveResult maps a SaveResult to 200, 422 with the validation result, or 500.
func writeSaveResult(w http.ResponseWriter, okStatus int, res roster.SaveResult, data any) error {
	switch {
	case res.Success:
		return writeSuccess(w, okStatus, data)
	case res.ValidationResult != nil:
		return writeJSON(w, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    res.ValidationResult,
			Error:   "validation failed",
		})
	default:
		return writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
