package handlers

import (
	"encoding/json"
	"net/http"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type validationError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeValidation answers 422 with Laravel's error bag shape. The top-level
// message repeats the first field error.
func writeValidation(w http.ResponseWriter, errs map[string][]string, order ...string) {
	message := "The given data was invalid."
	for _, field := range order {
		if msgs := errs[field]; len(msgs) > 0 {
			message = msgs[0]
			break
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, validationError{Message: message, Errors: errs})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
