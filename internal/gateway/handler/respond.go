package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"linecount/internal/linecount"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func statusForKind(kind linecount.Kind) int {
	switch kind {
	case linecount.KindUnauthorized:
		return http.StatusUnauthorized
	case linecount.KindNotFound:
		return http.StatusNotFound
	case linecount.KindTimeout:
		return http.StatusGatewayTimeout
	case linecount.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorPayload keeps total at zero so display clients reading only the
// number still render; the error key is what marks the failure.
func errorPayload(err error) (int, map[string]any) {
	kind := linecount.KindOf(err)
	body := map[string]any{
		"kind":  kind,
		"total": 0,
	}
	var e *linecount.Error
	if errors.As(err, &e) {
		body["error"] = e.Message
		if e.Err != nil {
			body["message"] = e.Err.Error()
		}
	} else {
		body["error"] = "Internal error"
		body["message"] = err.Error()
	}
	return statusForKind(kind), body
}

func errorMessage(err error) string {
	var e *linecount.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	status, body := errorPayload(err)
	writeJSON(w, status, body)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
}
