package goSession

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds every tunable of the engine. Build it with [DefaultConfig] or
// [LoadConfig] and hand it to [Builder.WithConfig].
type Config struct {
	JWT     JWTConfig     `koanf:"jwt"`
	Session SessionConfig `koanf:"session"`
	Events  EventsConfig  `koanf:"events"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig describes the signing keypair and token validation rules.
//
// Keys are taken from PrivateKey/PublicKey first, then from the *File paths. When
// neither is set and GenerateKeys is true a fresh keypair is created at Build.
type JWTConfig struct {
	SigningMethod  string        `koanf:"signing_method"` // "rs256" (default) or "ed25519"
	PrivateKey     []byte        `koanf:"-"`
	PublicKey      []byte        `koanf:"-"`
	PrivateKeyFile string        `koanf:"private_key_file"`
	PublicKeyFile  string        `koanf:"public_key_file"`
	GenerateKeys   bool          `koanf:"generate_keys"`
	RSAKeyBits     int           `koanf:"rsa_key_bits"`
	KeyID          string        `koanf:"key_id"`
	Issuer         string        `koanf:"issuer"`
	Leeway         time.Duration `koanf:"leeway"`
	// MaxLifetime adds an absolute exp claim. Zero leaves expiry entirely to the
	// sliding session timeout.
	MaxLifetime time.Duration `koanf:"max_lifetime"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls record defaults and the reaper.
type SessionConfig struct {
	DefaultTimeout  time.Duration `koanf:"default_timeout"`
	MaxTimeout      time.Duration `koanf:"max_timeout"` // 0 = unbounded
	DefaultEndpoint string        `koanf:"default_endpoint"`
	ReapInterval    time.Duration `koanf:"reap_interval"`
}

/*
====================================
EVENTS / METRICS / LOGGING
====================================
*/

// EventsConfig controls asynchronous lifecycle event delivery.
type EventsConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

// MetricsConfig toggles in-process counters and the verify latency histogram.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

// LoggingConfig selects the slog handler built when no logger is injected.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // "json" (default) or "text"
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "rs256",
			GenerateKeys:  true,
			RSAKeyBits:    2048,
		},
		Session: SessionConfig{
			DefaultTimeout:  30 * time.Minute,
			DefaultEndpoint: "web",
			ReapInterval:    5 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks value ranges. It does not parse keys; Build does that.
func (c *Config) Validate() error {
	// JWT
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "rs256", "ed25519":
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.MaxLifetime < 0 {
		return errors.New("JWT MaxLifetime must be >= 0")
	}
	if c.JWT.RSAKeyBits != 0 && c.JWT.RSAKeyBits < 2048 {
		return errors.New("JWT RSAKeyBits must be >= 2048")
	}
	if c.JWT.KeyID != "" && strings.TrimSpace(c.JWT.KeyID) == "" {
		return errors.New("JWT KeyID must not be blank")
	}
	if !c.hasPrivateKey() && !c.JWT.GenerateKeys {
		return errors.New("JWT requires a private key or GenerateKeys")
	}

	// Session
	if c.Session.DefaultTimeout <= 0 {
		return errors.New("Session DefaultTimeout must be > 0")
	}
	if c.Session.MaxTimeout < 0 {
		return errors.New("Session MaxTimeout must be >= 0")
	}
	if c.Session.MaxTimeout > 0 && c.Session.DefaultTimeout > c.Session.MaxTimeout {
		return errors.New("Session DefaultTimeout must be <= MaxTimeout")
	}
	if strings.TrimSpace(c.Session.DefaultEndpoint) == "" {
		return errors.New("Session DefaultEndpoint must not be empty")
	}
	if c.Session.ReapInterval <= 0 {
		return errors.New("Session ReapInterval must be > 0")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}

	// Logging
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return errors.New("Logging Format must be 'json' or 'text'")
	}

	return nil
}

func (c *Config) hasPrivateKey() bool {
	return len(c.JWT.PrivateKey) > 0 || c.JWT.PrivateKeyFile != ""
}

// resolveKeys reads key files into PrivateKey/PublicKey when the byte fields are empty.
func (c *Config) resolveKeys() error {
	if len(c.JWT.PrivateKey) == 0 && c.JWT.PrivateKeyFile != "" {
		data, err := os.ReadFile(c.JWT.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("read private key: %w", err)
		}
		c.JWT.PrivateKey = data
	}
	if len(c.JWT.PublicKey) == 0 && c.JWT.PublicKeyFile != "" {
		data, err := os.ReadFile(c.JWT.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}
		c.JWT.PublicKey = data
	}
	return nil
}
