package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:8000/ws", cfg.Socket.URL)
	assert.Equal(t, 2, cfg.Socket.ReconnectSeconds)
	assert.Equal(t, 30, cfg.Comments.PageSize)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SNAPFEED_API_BASE_URL", "https://api.example.com/api/v1")
	t.Setenv("SNAPFEED_API_TOKEN", "secret")
	t.Setenv("SNAPFEED_USER_ID", "u42")
	t.Setenv("SNAPFEED_COMMENTS_PAGE_SIZE", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "u42", cfg.User.ID)
	assert.Equal(t, 10, cfg.Comments.PageSize)
	// Socket URL derived from the API origin, wss for https.
	assert.Equal(t, "wss://api.example.com/ws", cfg.Socket.URL)
}

func TestLoadConfigExplicitSocketURL(t *testing.T) {
	t.Setenv("SNAPFEED_SOCKET_URL", "ws://push.example.com/ws")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ws://push.example.com/ws", cfg.Socket.URL)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Error(t, Validate(cfg), "user id is required")

	cfg.User.ID = "u1"
	require.NoError(t, Validate(cfg))

	cfg.Comments.PageSize = 0
	require.Error(t, Validate(cfg))
}
