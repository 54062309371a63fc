package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/service"
)

const maxBodyBytes = 1 << 20

const assistantUnavailableMessage = "The assistant is unavailable right now. Please try again in a moment."

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps a service error to its status code. Unknown errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, service.ErrNoUserMessage):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrLoanNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLoanPaidOff):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAssistantUnavailable):
		writeMessage(w, http.StatusBadGateway, assistantUnavailableMessage)
	case errors.Is(err, service.ErrStoreNotLoaded):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func loanID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid loan id %q", raw)}
	}
	return id, nil
}

// intQuery reads a non-negative integer query parameter, def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &domain.ValidationError{Field: name, Reason: fmt.Sprintf("invalid value %q", raw)}
	}
	return v, nil
}
