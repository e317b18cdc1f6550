package infrastructures

import (
	"net/http"
	"time"
)

type BillingConfig struct {
	SecretKey string
	BaseURL   string
}

// BillingClient talks to the external billing provider that owns customer
// profiles and stored payment methods.
type BillingClient struct {
	HTTPClient *http.Client
	Config     BillingConfig
}

func NewBillingConfig(cfg *AppConfig) BillingConfig {
	return BillingConfig{
		SecretKey: cfg.BillingSecretKey,
		BaseURL:   cfg.BillingBaseURL,
	}
}

func NewBillingClient(config BillingConfig) *BillingClient {
	return &BillingClient{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Config: config,
	}
}

// Enabled reports whether a billing provider is configured.
func (c *BillingClient) Enabled() bool {
	return c.Config.BaseURL != ""
}

// GetFullURL constructs the full URL for an endpoint
func (c *BillingClient) GetFullURL(endpoint string) string {
	return c.Config.BaseURL + endpoint
}
