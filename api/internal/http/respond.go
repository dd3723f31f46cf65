package httpx

import (
	"encoding/json"
	"net/http"
)

const (
	msgInternalServerErr = "Internal Server err"
	msgInternalError     = "Internal Server Error"
	msgAuthenticate      = "Please authenticate using a valid token"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeKeyed sends a single-field object. Clients of this API read different keys per endpoint.
func writeKeyed(w http.ResponseWriter, status int, key, msg string) {
	writeJSON(w, status, map[string]string{key: msg})
}
