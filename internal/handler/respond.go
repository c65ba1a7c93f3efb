package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorDetail writes a {"detail": ...} body, the shape used for permission,
// not-found, and advisory errors.
func errorDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// errorFields writes a per-field validation error body.
func errorFields(w http.ResponseWriter, status int, fields map[string][]string) {
	writeJSON(w, status, fields)
}

// errorNonField writes a {"non_field_errors": [...]} body for validation
// failures not tied to a single field.
func errorNonField(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, map[string][]string{"non_field_errors": messages})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
