package container

import (
	"fmt"
	"time"
)

// Config holds everything the container needs to assemble the application.
// It is deliberately independent of the viper-backed file config so the
// container can be built directly in tests.
type Config struct {
	Database     DatabaseConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

// AuthConfig holds access token settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

// NotificationConfig holds notification delivery settings.
type NotificationConfig struct {
	WebhookURL      string
	Timeout         time.Duration
	ContractorEmail string
	CCEmails        []string
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret is required")
	}
	if c.Notification.WebhookURL == "" {
		return fmt.Errorf("notification webhook url is required")
	}
	return nil
}
