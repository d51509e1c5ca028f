package neutronx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// SecurityContext is opaque TLS material handed to the acceptor; its
// contents are never inspected by the core (§6 "securityContext (optional
// opaque) — TLS material").
type SecurityContext struct {
	CertFile string
	KeyFile  string
}

// Config is the single recognized configuration surface (§6), renamed
// from the teacher's flat Air struct, decoded with mapstructure tags the
// way the teacher decodes its own config.json in Air.Serve.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	DebugMode bool   `mapstructure:"debug_mode"`

	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	Shared              bool             `mapstructure:"shared"`
	EnableCompression   bool             `mapstructure:"enable_compression"`
	IdleTimeout         time.Duration    `mapstructure:"idle_timeout"`
	MaxRequestBodyBytes int64            `mapstructure:"max_request_body_bytes"`
	SecurityContext     *SecurityContext `mapstructure:"-"`

	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`

	// Values is the free-form config surface exposed to modules/plugins
	// via their context (§6 "Arbitrary free-form config").
	Values map[string]any `mapstructure:"values"`
}

// DefaultConfig returns the core's documented defaults (§6): host
// "localhost", port 8080, everything else zero/disabled.
func DefaultConfig() *Config {
	return &Config{
		AppName: "neutronx",
		Host:    "localhost",
		Port:    8080,
		Values:  map[string]any{},
	}
}

// LoadConfigFile reads path (TOML, YAML, or JSON, chosen by extension)
// into a raw map and decodes it onto a copy of DefaultConfig via
// mapstructure, mirroring the teacher's Air.Serve: parse-to-map-first,
// then typed decode (§A.3).
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("neutronx: read config file: %w", err)
	}

	raw := map[string]any{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("neutronx: parse toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("neutronx: parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("neutronx: parse json config: %w", err)
		}
	default:
		return nil, fmt.Errorf("neutronx: unrecognized config extension: %s", path)
	}

	cfg := DefaultConfig()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("neutronx: build config decoder: %w", err)
	}

	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("neutronx: decode config: %w", err)
	}

	if cfg.Values == nil {
		cfg.Values = map[string]any{}
	}

	return cfg, nil
}

// Addr returns the bind address derived from Host and Port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
