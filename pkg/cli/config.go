package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	// ErrNoProtos is returned when a serve config lists no proto files.
	ErrNoProtos = errors.New("cli: config must list at least one proto file")
)

// ServeConfig configures the serve command.
type ServeConfig struct {
	// Protos lists the .proto files defining the served methods.
	Protos []string `yaml:"protos"`

	// ImportPaths lists directories searched for imported files,
	// like protoc -I.
	ImportPaths []string `yaml:"importPaths,omitempty"`

	// Address is the "host:port" bind address. Port 0 requests an
	// ephemeral port.
	Address string `yaml:"address,omitempty"`

	// Duration bounds the server lifetime (Go duration string).
	// Empty or "0" runs until interrupted.
	Duration string `yaml:"duration,omitempty"`

	// PortFile, when set, receives the bound port as soon as the bind
	// hook fires, before any call can be accepted.
	PortFile string `yaml:"portFile,omitempty"`

	// Methods configures per-method behavior, keyed by simple rpc name.
	// Unconfigured unary methods reply with an empty response message.
	Methods map[string]MethodConfig `yaml:"methods,omitempty"`
}

// MethodConfig configures one served method.
type MethodConfig struct {
	// Response is a fixed reply, matched by field name against the
	// response message schema.
	Response map[string]any `yaml:"response,omitempty"`

	// Echo replies with the request payload. Only valid when the request
	// and response types are the same message.
	Echo bool `yaml:"echo,omitempty"`
}

// LoadServeConfig reads and validates a YAML serve configuration.
func LoadServeConfig(path string) (*ServeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read config: %w", err)
	}

	var cfg ServeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cli: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for common errors.
func (c *ServeConfig) Validate() error {
	if len(c.Protos) == 0 {
		return ErrNoProtos
	}
	if c.Duration != "" {
		if _, err := time.ParseDuration(c.Duration); err != nil {
			return fmt.Errorf("cli: invalid duration %q: %w", c.Duration, err)
		}
	}
	return nil
}

// ParsedDuration returns the configured duration, zero when unset.
func (c *ServeConfig) ParsedDuration() time.Duration {
	if c.Duration == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Duration)
	if err != nil {
		return 0
	}
	return d
}
