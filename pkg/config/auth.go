package config

import (
	"fmt"
	"strings"
)

// APIKeyConfig holds the shared-secret credential guarding mutating endpoints.
type APIKeyConfig struct {
	Header string `koanf:"header"`
	APIKey string `koanf:"apikey"`
}

// String returns a string representation of the APIKeyConfig. The key itself is never printed.
func (c *APIKeyConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  header: %s\n", c.Header))
	if c.APIKey == "" {
		b.WriteString("  apikey: <not configured>\n")
	} else {
		b.WriteString("  apikey: ****\n")
	}
	return b.String()
}

func (c *APIKeyConfig) Validate() error {
	if strings.TrimSpace(c.Header) == "" {
		return fmt.Errorf("auth header name is not configured")
	}
	if c.APIKey == "" {
		return fmt.Errorf("auth api key is not configured")
	}
	return nil
}
