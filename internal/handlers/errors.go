package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"listify/internal/extract"
	"listify/internal/ingest"
	"listify/internal/repository"
	"listify/internal/utils"
)

// errorBody is the error half of the response envelope.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError maps an error to its HTTP status and envelope. Internal
// details are logged, never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)

	if status >= 500 {
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: &body}); encErr != nil {
		log.Printf("Error encoding error response: %v", encErr)
	}
}

func classifyError(err error) (int, errorBody) {
	var ve utils.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorBody{Kind: "validation_error", Message: ve.Error()}
	}

	var fe *ingest.FetchError
	if errors.As(err, &fe) {
		if fe.Blocked {
			return http.StatusForbidden, errorBody{Kind: "fetch_blocked", Message: "the site refused automated access"}
		}
		return http.StatusBadGateway, errorBody{Kind: "fetch_failed", Message: fe.Error()}
	}

	if errors.Is(err, repository.ErrListNotFound) {
		return http.StatusNotFound, errorBody{Kind: "not_found", Message: "list not found"}
	}
	if errors.Is(err, repository.ErrItemNotFound) {
		return http.StatusNotFound, errorBody{Kind: "not_found", Message: "item not found"}
	}

	var ee *extract.ExtractionError
	if errors.As(err, &ee) {
		return http.StatusBadGateway, errorBody{Kind: "extraction_failed", Message: "item extraction failed, try again"}
	}

	return http.StatusInternalServerError, errorBody{Kind: "persistence_error", Message: "internal server error"}
}
