package tracker

import (
	"time"
)

// TrackerConfig configures the loomd tracking server.
//
// to get `TrackerConfig` instance, use `TrackerConfigMarshall.TrySeal()` .
type TrackerConfig struct {
	port     int32
	database string
	store    string
	token    *TokenConfig
}

// Port the API server listens on.
func (c *TrackerConfig) Port() int32 {
	return c.port
}

// Connection string for database.
func (c *TrackerConfig) Database() string {
	return c.database
}

// Directory where checkpoint files are stored.
func (c *TrackerConfig) Store() string {
	return c.store
}

// API token settings. nil means the API requires no authentication.
func (c *TrackerConfig) Token() *TokenConfig {
	return c.token
}

type TokenConfig struct {
	secret []byte
	ttl    time.Duration
}

// HS256 signing secret of API tokens.
func (t *TokenConfig) Secret() []byte {
	return t.secret
}

// Lifetime of issued tokens. Zero means tokens do not expire.
func (t *TokenConfig) TTL() time.Duration {
	return t.ttl
}
