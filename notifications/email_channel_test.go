package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/pkg/email"
)

type capturingSender struct {
	params []email.SendEmailParams
}

func (s *capturingSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	s.params = append(s.params, params)
	return nil
}

func staticResolver(addr string) notifications.AddressResolver {
	return func(ctx context.Context, userID string) (string, error) {
		return addr, nil
	}
}

func TestEmailChannel_Deliver(t *testing.T) {
	t.Parallel()

	sender := &capturingSender{}
	channel, err := notifications.NewEmailChannel(sender, staticResolver("user@example.com"))
	require.NoError(t, err)

	notif := newNotification("user-1", notifications.TypeSystem)
	notif.Title = "Maintenance window"
	notif.Message = "We'll be down for an hour"
	notif.Payload = map[string]any{"action_url": "https://app.example.com/status"}

	require.NoError(t, channel.Deliver(context.Background(), notif))
	require.Len(t, sender.params, 1)

	sent := sender.params[0]
	assert.Equal(t, "user@example.com", sent.SendTo)
	assert.Equal(t, "Maintenance window", sent.Subject)
	assert.Contains(t, sent.BodyHTML, "We&#39;ll be down for an hour")
	assert.Contains(t, sent.BodyHTML, "https://app.example.com/status")
	assert.Equal(t, "notification-system", sent.Tag)
}

func TestEmailChannel_ResolverFailure(t *testing.T) {
	t.Parallel()

	sender := &capturingSender{}
	channel, err := notifications.NewEmailChannel(sender, func(ctx context.Context, userID string) (string, error) {
		return "", errors.New("unknown user")
	})
	require.NoError(t, err)

	err = channel.Deliver(context.Background(), newNotification("user-1", notifications.TypeSystem))
	require.Error(t, err)
	assert.Empty(t, sender.params)
}
