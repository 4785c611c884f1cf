package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/auth"
	"label-intake-api/internal/logging"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError maps err onto its status and code and logs server-side
// failures.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.Code(err)
	log := logging.FromContext(r.Context()).With(zap.Int("status", status), zap.String("code", code), zap.Error(err))
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Info("request rejected")
	}
	auth.WriteError(w, err.Error(), code, status)
}
