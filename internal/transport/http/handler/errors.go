package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/karvix-api/internal/domain"
	"github.com/karvix-api/internal/pkg/validate"
)

// httpError maps a service error onto a status code and writes it.
// Infrastructure failures are logged and answered with a generic message.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var ite *domain.IllegalTransitionError
	switch {
	case errors.As(err, &ite):
		writeError(w, http.StatusBadRequest, ite.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, publicMessage(err, domain.ErrBadRequest))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, publicMessage(err, domain.ErrUnauthorized))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, publicMessage(err, domain.ErrForbidden))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, publicMessage(err, domain.ErrNotFound))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, publicMessage(err, domain.ErrConflict))
	case errors.Is(err, domain.ErrEmailDispatch):
		slog.Error("email dispatch failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "could not send email, try again")
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// publicMessage drops the trailing ": <sentinel>" that services append when wrapping.
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimSuffix(msg, ": "+sentinel.Error()); trimmed != "" {
		return trimmed
	}
	return msg
}

// decodeValid decodes the JSON body into dst and runs struct validation.
// It writes the 400 itself and reports whether the handler should continue.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
