package realtime

import "errors"

var (
	// ErrConnectionLimit is returned by Hub.Register when the user already
	// has the maximum number of live connections. The caller closes the
	// new connection with CloseConnectionLimit; existing sessions are
	// never evicted.
	ErrConnectionLimit = errors.New("realtime: connection limit exceeded")
	// ErrHubClosed is returned by Register after Shutdown.
	ErrHubClosed = errors.New("realtime: hub is shut down")
	// ErrAuthFailure is returned by an Authenticator when credentials are
	// missing or invalid.
	ErrAuthFailure = errors.New("realtime: authentication failed")
)
