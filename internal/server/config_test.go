package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeConfigClampsInvalidValues(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{
		Port:            "",
		MaxMessageSize:  -1,
		RateLimitBurst:  0,
		RateLimitRefill: -time.Second,
	})

	cfg := currentConfig()
	require.Equal(t, ":8080", cfg.Port)
	require.Equal(t, int64(4096), cfg.MaxMessageSize)
	require.Equal(t, 10, cfg.RateLimitBurst)
	require.Equal(t, time.Second, cfg.RateLimitRefill)
	require.Equal(t, "Guest ", cfg.GuestNamePrefix)
}

func TestNewConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9191")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com,http://localhost:3000")
	t.Setenv("GUEST_NAME_PREFIX", "Visitor ")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")

	cfg := NewConfigFromEnv()
	require.Equal(t, ":9191", cfg.Port)
	require.Equal(t, []string{"https://chat.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	require.Equal(t, "Visitor ", cfg.GuestNamePrefix)
	require.Equal(t, 2*time.Second, cfg.RateLimitRefill)
}

func TestNewConfigFromEnvDefaults(t *testing.T) {
	cfg := NewConfigFromEnv()
	require.Equal(t, ":8080", cfg.Port)
	require.Equal(t, int64(4096), cfg.MaxMessageSize)
	require.Empty(t, cfg.HistoryDir)
}

func originRequest(origin string) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginAllowList(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{AllowedOrigins: []string{"https://Chat.Example.com"}})

	require.True(t, isOriginAllowed(originRequest("https://chat.example.com")))
	require.False(t, isOriginAllowed(originRequest("https://evil.example.com")))
	require.False(t, isOriginAllowed(originRequest("")))
	require.False(t, isOriginAllowed(originRequest("not a url")))
}

func TestOriginWildcardAllowsAll(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	require.True(t, isOriginAllowed(originRequest("https://anything.example.com")))
	require.False(t, isOriginAllowed(originRequest("")), "a missing origin header is never allowed")
}

func TestNormalizeOriginsDropsInvalidEntries(t *testing.T) {
	normalized, allowAll := normalizeOrigins([]string{" http://localhost:8080 ", "", "not a url", "*"})
	require.True(t, allowAll)
	require.Equal(t, []string{"http://localhost:8080"}, normalized)
}
