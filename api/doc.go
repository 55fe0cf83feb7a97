// Package api exposes the notification service over HTTP: the WebSocket
// endpoint and the push-subscription REST surface, mounted on a chi
// router.
//
// Every route except the WebSocket upgrade requires a bearer credential
// checked by the same Authenticator the socket uses, so a browser session
// can manage its push subscription with the token it already holds.
package api
