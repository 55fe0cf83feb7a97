package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("mailer: failed to send email")
	ErrInvalidConfig     = errors.New("mailer: invalid config")
	ErrInvalidParams     = errors.New("mailer: invalid send params")
)
