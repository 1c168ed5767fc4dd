// Package config loads runtime configuration for the ssdlc CLI and serve
// mode. Values come from an optional YAML file with environment overrides;
// the compile path works with an all-defaults Config.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/providers"
)

type Config struct {
	LogLevel  string `yaml:"log_level" env:"SSDLC_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"SSDLC_LOG_FORMAT" env-default:"json"`

	Compiler CompilerConfig `yaml:"compiler"`
	HTTP     HTTPConfig     `yaml:"http"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
	OTLP     OTLPConfig     `yaml:"otlp"`
	Auth     AuthConfig     `yaml:"auth"`
}

type CompilerConfig struct {
	// SupportedMajors lists the descriptor major versions this build accepts.
	SupportedMajors []int `yaml:"supported_majors" env:"SSDLC_SUPPORTED_MAJORS" env-separator:"," env-default:"1"`
	// LanguageVersion is the language release this build implements.
	LanguageVersion string `yaml:"language_version" env:"SSDLC_LANGUAGE_VERSION" env-default:"1.0.0"`
	// Workers bounds reference-resolution concurrency.
	Workers int `yaml:"workers" env:"SSDLC_WORKERS" env-default:"4"`
	// SchemasPath points at a YAML file of provider attribute schemas that
	// replaces the built-in ones. Empty keeps the defaults.
	SchemasPath string `yaml:"schemas_path" env:"SSDLC_SCHEMAS_PATH" env-default:""`
}

// Language parses LanguageVersion into a descriptor version.
func (c CompilerConfig) Language() (descriptor.Version, error) {
	v, err := descriptor.ParseVersion(c.LanguageVersion)
	if err != nil {
		return descriptor.Version{}, fmt.Errorf("language_version: %w", err)
	}
	return v, nil
}

// Registry builds the provider registry, applying the schema override file
// when one is configured.
func (c CompilerConfig) Registry() (*providers.Registry, error) {
	if c.SchemasPath == "" {
		return providers.DefaultRegistry(), nil
	}
	schemas, err := providers.LoadSchemaFile(c.SchemasPath)
	if err != nil {
		return nil, fmt.Errorf("schemas_path: %w", err)
	}
	return providers.RegistryFromSchemas(schemas), nil
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr" env:"SSDLC_HTTP_ADDR" env-default:":8080"`
	CORSOrigins  []string      `yaml:"cors_origins" env:"SSDLC_HTTP_CORS_ORIGINS" env-separator:"," env-default:"*"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SSDLC_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SSDLC_HTTP_WRITE_TIMEOUT" env-default:"30s"`
}

// RedisConfig controls the IR cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"SSDLC_REDIS_ADDR" env-default:""`
	Password string        `yaml:"-" env:"SSDLC_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"SSDLC_REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"SSDLC_REDIS_TTL" env-default:"24h"`
}

// NATSConfig controls compile-event publishing. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url" env:"SSDLC_NATS_URL" env-default:""`
	SubjectPrefix string `yaml:"subject_prefix" env:"SSDLC_NATS_SUBJECT_PREFIX" env-default:"ssdlc"`
}

// PostgresConfig controls the descriptor registry. An empty DSN selects the
// in-memory registry.
type PostgresConfig struct {
	DSN string `yaml:"-" env:"SSDLC_POSTGRES_DSN"`
}

// S3Config controls s3:// descriptor fetching. Credentials come from the
// standard AWS chain; Endpoint supports S3-compatible stores.
type S3Config struct {
	Region   string `yaml:"region" env:"SSDLC_S3_REGION" env-default:""`
	Endpoint string `yaml:"endpoint" env:"SSDLC_S3_ENDPOINT" env-default:""`
}

// OTLPConfig controls trace export. An empty Endpoint disables tracing.
type OTLPConfig struct {
	Endpoint string `yaml:"endpoint" env:"SSDLC_OTLP_ENDPOINT" env-default:""`
	Insecure bool   `yaml:"insecure" env:"SSDLC_OTLP_INSECURE" env-default:"true"`
}

type AuthConfig struct {
	// RequireAPIKey gates the serve-mode API behind hashed API keys.
	RequireAPIKey bool `yaml:"require_api_key" env:"SSDLC_AUTH_REQUIRE_API_KEY" env-default:"false"`
}

// Load reads configuration from environment variables alone.
func Load() (*Config, error) {
	var cfg Config

	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}

// LoadFile reads a YAML config file first, then applies environment
// overrides on top.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}
