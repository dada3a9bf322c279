package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix   = "PAYMENTS_"
	servicesKey = "collaborators.services."
)

type Config struct {
	HTTP          HTTPConfig          `koanf:"http"`
	DB            DBConfig            `koanf:"db"`
	Log           LogConfig           `koanf:"log"`
	Kafka         KafkaConfig         `koanf:"kafka"`
	Outbox        OutboxConfig        `koanf:"outbox"`
	Collaborators CollaboratorsConfig `koanf:"collaborators"`
	Policy        PolicyConfig        `koanf:"policy"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

type DBConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Name         string        `koanf:"name"`
	SSLMode      string        `koanf:"ssl_mode"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type KafkaConfig struct {
	Enabled            bool     `koanf:"enabled"`
	Brokers            []string `koanf:"brokers"`
	PaymentEventsTopic string   `koanf:"payment_events_topic"`
}

type OutboxConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval"`
	PollTimeout    time.Duration `koanf:"poll_timeout"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	BatchSize      int           `koanf:"batch_size"`
}

type CollaboratorsConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	// Services maps a logical service name (CONTA, VENDAS-SERVICE,
	// AGENDAMENTO) to its base URL.
	Services map[string]string `koanf:"services"`
}

type PolicyConfig struct {
	TerminalTransition string `koanf:"terminal_transition"`
	UnavailableTotal   string `koanf:"unavailable_total"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":                  ":8080",
		"http.read_timeout":          "10s",
		"http.write_timeout":         "30s",
		"http.idle_timeout":          "60s",
		"http.shutdown_timeout":      "15s",
		"http.allowed_origins":       []string{"http://localhost:3000", "http://localhost:5173"},
		"db.host":                    "localhost",
		"db.port":                    5432,
		"db.user":                    "postgres",
		"db.password":                "postgres",
		"db.name":                    "pagamentos",
		"db.ssl_mode":                "disable",
		"db.max_open_conns":          10,
		"db.max_retries":             10,
		"db.retry_delay":             "5s",
		"log.level":                  "info",
		"log.file":                   "",
		"log.max_size_mb":            50,
		"log.max_backups":            3,
		"log.max_age_days":           7,
		"kafka.enabled":              false,
		"kafka.brokers":              []string{"localhost:9092"},
		"kafka.payment_events_topic": "payment_events",
		"outbox.poll_interval":       "1s",
		"outbox.poll_timeout":        "500ms",
		"outbox.publish_timeout":     "5s",
		"outbox.batch_size":          10,
		"collaborators.timeout":      "5s",
		"policy.terminal_transition": "reject",
		"policy.unavailable_total":   "degrade",

		servicesKey + "CONTA":          "http://localhost:8081",
		servicesKey + "VENDAS-SERVICE": "http://localhost:8082",
		servicesKey + "AGENDAMENTO":    "http://localhost:8083",
	}
}

// Load builds the configuration from built-in defaults, then the YAML file at
// path when it is not empty, then PAYMENTS_* environment variables. Nested keys
// use "__" in variable names, e.g. PAYMENTS_DB__HOST.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", parseEnv), nil); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv maps PAYMENTS_KAFKA__BROKERS to kafka.brokers and splits list
// values on commas. Service names keep the upper-case form used in YAML, with
// '_' read as '-': PAYMENTS_COLLABORATORS__SERVICES__VENDAS_SERVICE sets
// collaborators.services.VENDAS-SERVICE.
func parseEnv(key, value string) (string, any) {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
	if name, ok := strings.CutPrefix(key, servicesKey); ok {
		return servicesKey + strings.ReplaceAll(strings.ToUpper(name), "_", "-"), value
	}
	switch key {
	case "kafka.brokers", "http.allowed_origins":
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr required"))
	}
	if c.DB.Host == "" {
		errs = append(errs, errors.New("db.host required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("db.name required"))
	}
	switch strings.ToLower(c.Policy.TerminalTransition) {
	case "reject", "idempotent", "overwrite":
	default:
		errs = append(errs, fmt.Errorf("policy.terminal_transition must be reject, idempotent or overwrite, got %q", c.Policy.TerminalTransition))
	}
	switch strings.ToLower(c.Policy.UnavailableTotal) {
	case "degrade", "fail":
	default:
		errs = append(errs, fmt.Errorf("policy.unavailable_total must be degrade or fail, got %q", c.Policy.UnavailableTotal))
	}
	if c.Collaborators.Timeout <= 0 {
		errs = append(errs, errors.New("collaborators.timeout must be positive"))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers required when kafka is enabled"))
		}
		if c.Kafka.PaymentEventsTopic == "" {
			errs = append(errs, errors.New("kafka.payment_events_topic required when kafka is enabled"))
		}
		if c.Outbox.PollInterval <= 0 {
			errs = append(errs, errors.New("outbox.poll_interval must be positive"))
		}
		if c.Outbox.PublishTimeout <= 0 {
			errs = append(errs, errors.New("outbox.publish_timeout must be positive"))
		}
		if c.Outbox.BatchSize <= 0 {
			errs = append(errs, errors.New("outbox.batch_size must be positive"))
		}
	}
	return errors.Join(errs...)
}

func (c DBConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c DBConfig) MigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// ConfigPathFromEnv returns PAYMENTS_CONFIG, the default config file location.
func ConfigPathFromEnv() string {
	return os.Getenv(envPrefix + "CONFIG")
}
