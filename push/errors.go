package push

import "errors"

var (
	ErrMissingVAPIDKeys    = errors.New("push: VAPID keys are required")
	ErrMissingSubscriber   = errors.New("push: subscriber contact is required")
	ErrInvalidSubscription = errors.New("push: invalid subscription")
	ErrDeliveryFailed      = errors.New("push: delivery failed")
)
