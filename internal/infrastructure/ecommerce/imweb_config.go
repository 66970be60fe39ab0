package ecommerce

import (
	"errors"
	"strings"
	"time"
)

const (
	// ImwebAPIURL is the production API endpoint
	ImwebAPIURL = "https://api.imweb.me"
	// ImwebMaxPageSize is the largest page the orders endpoint returns
	ImwebMaxPageSize = 100
)

// Errors for imweb configuration
var (
	ErrImwebConfigMissingAccessToken = errors.New("imweb: access token is required")
	ErrImwebConfigInvalidPageSize    = errors.New("imweb: page size must be between 1 and 100")
	ErrImwebConfigInvalidMaxPages    = errors.New("imweb: max pages must be positive")
)

// ImwebConfig holds configuration for the imweb storefront API
type ImwebConfig struct {
	// AccessToken is a token issued outside this service; it is sent as-is
	AccessToken string
	// APIBaseURL is the base URL of the API
	APIBaseURL string
	// PageSize is the number of orders requested per page
	PageSize int
	// MaxPages bounds how many pages one fetch may read
	MaxPages int
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// ItemSurface enables fetching items from the per-order item endpoint
	ItemSurface bool
}

// NewImwebConfig creates a new imweb configuration with defaults
func NewImwebConfig(accessToken string) *ImwebConfig {
	return &ImwebConfig{
		AccessToken: accessToken,
		APIBaseURL:  ImwebAPIURL,
		PageSize:    ImwebMaxPageSize,
		MaxPages:    50,
		Timeout:     30 * time.Second,
	}
}

// Validate validates the configuration and fills in defaults for empty optional fields
func (c *ImwebConfig) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return ErrImwebConfigMissingAccessToken
	}
	if c.PageSize == 0 {
		c.PageSize = ImwebMaxPageSize
	}
	if c.PageSize < 1 || c.PageSize > ImwebMaxPageSize {
		return ErrImwebConfigInvalidPageSize
	}
	if c.MaxPages < 0 {
		return ErrImwebConfigInvalidMaxPages
	}
	if c.MaxPages == 0 {
		c.MaxPages = 50
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ImwebAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
