// Package push delivers notifications to browsers over the Web Push
// protocol (RFC 8030) with VAPID authentication. It is one of the
// delivery channels behind the notification router; devices registered
// through the REST surface carry the browser's subscription JSON as
// their token.
package push
