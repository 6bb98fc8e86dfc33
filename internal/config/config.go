// Package config handles environment variable loading and project
// configuration resolution.
// Precedence: LIFERAY_* (legacy) -> MIGRADOR_* -> .env file -> error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds resolved destination credentials.
type Config struct {
	BaseURL  string
	Username string
	Password string
	SiteID   int64
}

// ErrMissingConfig is returned when required config values cannot be resolved.
var ErrMissingConfig = errors.New("missing configuration")

// Load resolves credentials from environment and optional .env file.
// Precedence: LIFERAY_* (legacy) -> MIGRADOR_* -> .env file.
// The .env path is loaded only if explicit env vars are absent.
func Load(dotEnvPath string) (*Config, error) {
	// Attempt to load .env if provided and env vars are not already set.
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			// Only load .env values that aren't already set in the environment.
			_ = godotenv.Load(dotEnvPath)
		}
	}

	baseURL := resolve("LIFERAY_URL", "MIGRADOR_URL")
	username := resolve("LIFERAY_USERNAME", "MIGRADOR_USERNAME")
	password := resolve("LIFERAY_PASSWORD", "MIGRADOR_PASSWORD")
	siteID := resolve("LIFERAY_SITE_ID", "MIGRADOR_SITE_ID")

	var missing []string
	if baseURL == "" {
		missing = append(missing, "MIGRADOR_URL")
	}
	if username == "" {
		missing = append(missing, "MIGRADOR_USERNAME")
	}
	if siteID == "" {
		missing = append(missing, "MIGRADOR_SITE_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	id, err := strconv.ParseInt(siteID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: MIGRADOR_SITE_ID %q is not a number", ErrMissingConfig, siteID)
	}

	return &Config{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		SiteID:   id,
	}, nil
}

// resolve returns the first non-empty value from the legacy key then the canonical key.
func resolve(legacyKey, canonicalKey string) string {
	if v := os.Getenv(legacyKey); v != "" {
		return v
	}
	return os.Getenv(canonicalKey)
}
