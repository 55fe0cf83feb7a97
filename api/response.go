package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumenlearn/notify/notifications"
)

// envelope is the standard response body: exactly one of Data or Error
// is set.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorDetail{Code: code, Message: message}})
}

// writeStorageError maps domain sentinels to HTTP statuses; anything
// unexpected is a 500 without leaking internals.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notifications.ErrValidation), errors.Is(err, notifications.ErrUnknownType):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, notifications.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
	case errors.Is(err, notifications.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
