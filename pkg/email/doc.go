// Package email provides transactional email sending behind a narrow
// EmailSender interface.
//
// Two implementations ship with the package: a Postmark-backed client for
// production and DevSender, which writes outgoing mail to disk for local
// development. Callers render their own HTML body and hand it over as
// SendEmailParams; this package owns sender identity and transport only.
package email
