package goSession

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the environment variable prefix read by LoadConfig.
const DefaultEnvPrefix = "GOSESSION_"

// LoadConfig layers a YAML file (optional, skipped when path is empty) and
// environment variables over [DefaultConfig] and validates the result.
//
// Environment keys use a double underscore between sections:
// GOSESSION_SESSION__DEFAULT_TIMEOUT=15m sets session.default_timeout.
func LoadConfig(path, envPrefix string) (Config, error) {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("%w: load file %s: %v", ErrConfig, path, err)
		}
	}

	transform := func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}
	if err := k.Load(env.Provider(envPrefix, ".", transform), nil); err != nil {
		return Config{}, fmt.Errorf("%w: load env: %v", ErrConfig, err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshal: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg, nil
}
