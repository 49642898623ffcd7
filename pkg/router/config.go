package router

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Config controls both routers.
type Config struct {
	// SourcePenalty is how many extra hops the static router searches for an
	// existing tree or tie-off after it first finds a LUT that could become a
	// new source.
	SourcePenalty int `yaml:"source_penalty" validate:"gte=0,lte=64"`

	// MaxSearchNodes bounds the nodes one static sink search may visit. 0 means unbounded.
	MaxSearchNodes int `yaml:"max_search_nodes" validate:"gte=0"`

	// ContinueOnError makes RouteGlobalNets route the remaining nets after a
	// failure and return every error joined.
	ContinueOnError bool `yaml:"continue_on_error"`

	// InvertGndToVcc moves GND sinks on LUT inputs to VCC before the static
	// nets are routed, inverting the input in the LUT equation.
	InvertGndToVcc bool `yaml:"invert_gnd_to_vcc"`

	// LCBs overrides the leaf clock buffer table (default: DefaultLCBTable()).
	LCBs *LCBTable `yaml:"-" validate:"-"`

	// Logger receives routing logs (default: slog.Default()).
	Logger *slog.Logger `yaml:"-" validate:"-"`
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		SourcePenalty:  3,
		MaxSearchNodes: 200000,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and fills unset collaborators.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("router: invalid config: %w", err)
	}
	if c.LCBs == nil {
		c.LCBs = DefaultLCBTable()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("router: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
