package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config represents the client configuration
type Config struct {
	API struct {
		BaseURL string `koanf:"base_url"`
		Token   string `koanf:"token"`
	} `koanf:"api"`

	Socket struct {
		URL              string `koanf:"url"`
		ReconnectSeconds int    `koanf:"reconnect_seconds"`
	} `koanf:"socket"`

	User struct {
		ID string `koanf:"id"`
	} `koanf:"user"`

	Comments struct {
		PageSize int `koanf:"page_size"`
	} `koanf:"comments"`
}

// LoadConfig loads defaults and overlays SNAPFEED_* environment variables
// (SNAPFEED_API_BASE_URL, SNAPFEED_API_TOKEN, SNAPFEED_SOCKET_URL,
// SNAPFEED_USER_ID, ...).
func LoadConfig() (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"api.base_url":             "http://localhost:8000/api/v1",
		"socket.reconnect_seconds": 2,
		"comments.page_size":       30,
	}, "."), nil)

	k.Load(env.Provider("SNAPFEED_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SNAPFEED_")
		s = strings.ToLower(s)
		// First segment is the section, the rest is one key
		// (API_BASE_URL -> api.base_url).
		parts := strings.SplitN(s, "_", 2)
		return strings.Join(parts, ".")
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Prefer an explicit socket URL, else derive it from the API origin.
	if config.Socket.URL == "" {
		derived, err := deriveSocketURL(config.API.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("cannot derive socket url: %w", err)
		}
		config.Socket.URL = derived
	}

	return &config, nil
}

// deriveSocketURL strips the API path (e.g. /api/v1) and swaps the scheme
// to ws(s), pointing at the /ws push endpoint.
func deriveSocketURL(apiBaseURL string) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/ws", scheme, u.Host), nil
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if config.User.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if config.Comments.PageSize <= 0 {
		return fmt.Errorf("comments page size must be positive")
	}
	return nil
}
