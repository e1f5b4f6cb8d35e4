package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/domain"
)

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't send a JSON error, so just log it.
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeFlowError maps the core error taxonomy onto HTTP statuses. Messages
// from the wallet service are passed through verbatim; everything else gets
// its own error text.
func writeFlowError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var currencyErr *domain.UnsupportedCurrencyError
	var authErr *domain.AuthError
	var networkErr *domain.NetworkError
	var upstreamErr *domain.UpstreamError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &currencyErr), errors.As(err, &authErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, app.ErrFlowBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrCooldownActive):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, app.ErrFlowDestroyed):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &networkErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &upstreamErr):
		writeError(w, http.StatusBadGateway, upstreamErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
