package billing

import (
	"errors"
	"strings"
)

// StripeConfig contains configuration for Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...).
	// Used to verify payment events sent by Stripe.
	WebhookSecret string

	// MaxRetries is the maximum number of retries for transient failures
	// Default: 2
	MaxRetries int64
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if !strings.HasPrefix(c.APIKey, "sk_") && !strings.HasPrefix(c.APIKey, "rk_") {
		return errors.Join(ErrInvalidAPIKey, errors.New("stripe: key must be a secret or restricted key"))
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	if c.MaxRetries < 0 {
		return errors.New("stripe: max retries cannot be negative")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_") || strings.HasPrefix(c.APIKey, "rk_test_")
}
