package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/educacao-adventista/matriculometro/internal/codec"
	"github.com/educacao-adventista/matriculometro/internal/ctxkeys"
	"github.com/educacao-adventista/matriculometro/internal/repository"
	"github.com/educacao-adventista/matriculometro/internal/service"
	"github.com/educacao-adventista/matriculometro/internal/validation"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and answered with fallback so storage details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Fields: verr.Fields})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: cerr.Error()})
	case errors.Is(err, repository.ErrGoalNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "goal not found"})
	case errors.Is(err, codec.ErrNotArray):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error() + ", for example: " + codec.ExpectedShape})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
	case errors.Is(err, codec.ErrMalformed), errors.Is(err, codec.ErrNoValidRows):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		slog.Error(fallback, "error", err, "request_id", ctxkeys.RequestID(r.Context()), "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

// maxBodyBytes bounds create, update and patch bodies.
const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	if err != nil {
		return service.NewValidationError("invalid JSON body")
	}
	return nil
}

// parseID accepts an id sent as a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var id int64
	if json.Unmarshal(raw, &id) == nil {
		return id, nil
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil {
			return id, nil
		}
	}

	return 0, service.NewValidationError("invalid id")
}
