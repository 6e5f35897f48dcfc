package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

// ErrorResponse is the JSON envelope for all business-rule failures
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// WriteError writes a structured error with a human-readable message
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// WriteErrorCode writes a structured error with a machine-readable code
func WriteErrorCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// WriteInternalError masks unexpected failures in production and includes the
// underlying error outside it.
func WriteInternalError(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	resp := ErrorResponse{Message: "Internal server error"}
	if os.Getenv("APP_ENV") != "production" && err != nil {
		resp.Details = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, resp)
}
