package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/logger"
)

type subscriptionService struct {
	devices notifications.DeviceStorage
	logger  *slog.Logger
}

// registerRequest carries a push endpoint. Web clients send the
// PushSubscription object as subscription_json; native clients send
// their platform token. Exactly one of the two identifies the device.
type registerRequest struct {
	Token            string          `json:"token,omitempty"`
	SubscriptionJSON json.RawMessage `json:"subscription_json,omitempty"`
	DeviceType       string          `json:"device_type"`
	DeviceName       string          `json:"device_name,omitempty"`
}

func (req registerRequest) validate() (token string, deviceType notifications.DeviceType, problem string) {
	token = req.Token
	if token == "" && len(req.SubscriptionJSON) > 0 {
		token = string(req.SubscriptionJSON)
	}
	if token == "" {
		return "", "", "token or subscription_json is required"
	}
	deviceType = notifications.DeviceType(req.DeviceType)
	if deviceType == "" {
		deviceType = notifications.DeviceWeb
	}
	if !deviceType.Valid() {
		return "", "", "device_type must be one of ios, android, web"
	}
	return token, deviceType, ""
}

// register upserts a device keyed by its token. Registering a token that
// already belongs to another user moves it: the previous owner's device
// row is deactivated, never deleted.
func (s *subscriptionService) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_body", "request body must be valid JSON")
		return
	}

	token, deviceType, problem := req.validate()
	if problem != "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", problem)
		return
	}

	userID := userIDFromContext(r.Context())
	device, err := s.devices.RegisterDevice(r.Context(), notifications.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
		DeviceName: req.DeviceName,
		IsActive:   true,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to register device",
			logger.UserID(userID),
			logger.Error(err),
		)
		writeStorageError(w, err)
		return
	}

	s.logger.LogAttrs(r.Context(), slog.LevelInfo, "push device registered",
		logger.UserID(userID),
		logger.DeviceID(device.ID),
		slog.String("device_type", string(device.DeviceType)),
	)
	writeJSON(w, http.StatusCreated, device)
}

func (s *subscriptionService) list(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	devices, err := s.devices.ListDevices(r.Context(), userID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if devices == nil {
		devices = []notifications.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

type unregisterRequest struct {
	Token string `json:"token"`
}

// unregister deactivates the caller's device with the given token.
// Idempotent: a token that is already inactive or unknown to the caller
// still yields 204, so clients can retry blindly on page unload.
func (s *subscriptionService) unregister(w http.ResponseWriter, r *http.Request) {
	var req unregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_body", "request body must be valid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "token is required")
		return
	}

	userID := userIDFromContext(r.Context())
	err := s.devices.DeactivateDeviceByToken(r.Context(), userID, req.Token)
	if err != nil && !errors.Is(err, notifications.ErrDeviceNotFound) {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to deactivate device",
			logger.UserID(userID),
			logger.Error(err),
		)
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
