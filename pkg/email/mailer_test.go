package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "New notification",
		BodyHTML: "<p>hello</p>",
	}

	tests := []struct {
		name    string
		mutate  func(*email.SendEmailParams)
		wantErr bool
	}{
		{name: "valid params", mutate: func(p *email.SendEmailParams) {}},
		{name: "missing recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "" }, wantErr: true},
		{name: "invalid recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }, wantErr: true},
		{name: "missing subject", mutate: func(p *email.SendEmailParams) { p.Subject = "" }, wantErr: true},
		{name: "missing body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			params := valid
			tt.mutate(&params)

			err := params.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, email.ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  email.Config
	}{
		{name: "missing server token", cfg: email.Config{
			PostmarkAccountToken: "acc",
			SenderEmail:          "noreply@example.com",
			SupportEmail:         "support@example.com",
		}},
		{name: "missing account token", cfg: email.Config{
			PostmarkServerToken: "srv",
			SenderEmail:         "noreply@example.com",
			SupportEmail:        "support@example.com",
		}},
		{name: "invalid sender email", cfg: email.Config{
			PostmarkServerToken:  "srv",
			PostmarkAccountToken: "acc",
			SenderEmail:          "nope",
			SupportEmail:         "support@example.com",
		}},
		{name: "invalid support email", cfg: email.Config{
			PostmarkServerToken:  "srv",
			PostmarkAccountToken: "acc",
			SenderEmail:          "noreply@example.com",
			SupportEmail:         "nope",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender, err := email.NewPostmarkClient(tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Nil(t, sender)
		})
	}
}

func TestDevSender_WritesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Daily Digest",
		BodyHTML: "<h1>digest</h1>",
		Tag:      "daily-digest",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFile, jsonFile string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFile = e.Name()
		case ".json":
			jsonFile = e.Name()
		}
	}
	require.NotEmpty(t, htmlFile)
	require.NotEmpty(t, jsonFile)
	assert.True(t, strings.Contains(htmlFile, "daily-digest"))

	body, err := os.ReadFile(filepath.Join(dir, htmlFile))
	require.NoError(t, err)
	assert.Equal(t, "<h1>digest</h1>", string(body))

	meta, err := os.ReadFile(filepath.Join(dir, jsonFile))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"send_to": "user@example.com"`)
}

func TestDevSender_InvalidParams(t *testing.T) {
	t.Parallel()

	sender := email.NewDevSender(t.TempDir())
	err := sender.SendEmail(context.Background(), email.SendEmailParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
