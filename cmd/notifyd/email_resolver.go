package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lumenlearn/notify/notifications"
)

// newEmailResolver builds the user-to-address lookup against the
// platform's account service. The notification store knows nothing about
// users, so addresses have to come from outside.
func newEmailResolver(cfg appConfig) (notifications.AddressResolver, error) {
	if cfg.EmailLookupURL == "" {
		return nil, fmt.Errorf("EMAIL_LOOKUP_URL is required when email delivery is enabled")
	}
	base, err := url.Parse(cfg.EmailLookupURL)
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_LOOKUP_URL: %w", err)
	}

	client := &http.Client{Timeout: cfg.EmailLookupTimeout}

	return func(ctx context.Context, userID string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath(userID).String(), nil)
		if err != nil {
			return "", err
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("email lookup failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("email lookup returned status %d for user %s", resp.StatusCode, userID)
		}

		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("email lookup returned invalid body: %w", err)
		}
		if body.Email == "" {
			return "", fmt.Errorf("email lookup returned no address for user %s", userID)
		}
		return body.Email, nil
	}, nil
}
