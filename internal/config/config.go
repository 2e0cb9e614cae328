// Package config carga la configuración del proceso: defaults, YAML opcional y
// overrides por variables de entorno (en ese orden).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("config: JWT_SECRET is required")
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
		// TLSInsecure acepta certificados autofirmados (relajación del entorno de despliegue).
		TLSInsecure bool `yaml:"tls_insecure"`

		MaxConnections    int    `yaml:"max_connections"`
		IdleTimeout       string `yaml:"idle_timeout"`
		ConnectionTimeout string `yaml:"connection_timeout"`
		StatementTimeout  string `yaml:"statement_timeout"`
		QueryTimeout      string `yaml:"query_timeout"`
		KeepAlive         string `yaml:"keep_alive"`

		RetryAttempts int    `yaml:"retry_attempts"`
		RetryInterval string `yaml:"retry_interval"`

		MigrationsDir string `yaml:"migrations_dir"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
}

// Defaults retorna una Config con los valores de tuning del pool ya cargados.
func Defaults() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Server.Addr = ":8080"
	c.Server.ShutdownTimeout = "15s"

	c.Database.MaxConnections = 10
	c.Database.IdleTimeout = "10s"
	c.Database.ConnectionTimeout = "5s"
	c.Database.StatementTimeout = "30s"
	c.Database.QueryTimeout = "30s"
	c.Database.KeepAlive = "30s"
	c.Database.RetryAttempts = 3
	c.Database.RetryInterval = "1s"
	c.Database.MigrationsDir = "migrations/postgres"
	return &c
}

// LoadOption ajusta qué valida Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	skipJWT bool
	skipDB  bool
}

// WithoutJWT omite JWT_SECRET en la validación (scripts que solo tocan la base).
func WithoutJWT() LoadOption { return func(o *loadOptions) { o.skipJWT = true } }

// WithoutDatabase omite DATABASE_URL en la validación (comandos que no abren la base).
func WithoutDatabase() LoadOption { return func(o *loadOptions) { o.skipDB = true } }

// Load arma la config. Si path es "" o no existe, se usan solo defaults + env.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var lo loadOptions
	for _, o := range opts {
		o(&lo)
	}
	c := Defaults()

	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", p, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// YAML opcional
		default:
			return nil, fmt.Errorf("config: read %s: %w", p, err)
		}
	}

	c.applyEnvOverrides()

	err := c.Validate()
	if lo.skipJWT {
		err = withoutErr(err, ErrMissingJWTSecret)
	}
	if lo.skipDB {
		err = withoutErr(err, ErrMissingDatabaseURL)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate chequea campos requeridos y que las duraciones parseen.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("config: database.max_connections must be > 0 (got %d)", c.Database.MaxConnections))
	}
	if c.Database.RetryAttempts <= 0 {
		errs = append(errs, fmt.Errorf("config: database.retry_attempts must be > 0 (got %d)", c.Database.RetryAttempts))
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout":     c.Server.ShutdownTimeout,
		"database.idle_timeout":       c.Database.IdleTimeout,
		"database.connection_timeout": c.Database.ConnectionTimeout,
		"database.statement_timeout":  c.Database.StatementTimeout,
		"database.query_timeout":      c.Database.QueryTimeout,
		"database.keep_alive":         c.Database.KeepAlive,
		"database.retry_interval":     c.Database.RetryInterval,
	} {
		if _, err := ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// withoutErr saca target de un error armado con errors.Join.
func withoutErr(err, target error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		if errors.Is(err, target) {
			return nil
		}
		return err
	}
	var keep []error
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, target) {
			keep = append(keep, e)
		}
	}
	return errors.Join(keep...)
}

// ShutdownTimeout devuelve el timeout de apagado ya parseado.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// ParseDuration acepta "10s", "1m30s" o un entero en milisegundos ("10000").
// Vacío vale 0.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	if v, ok := getEnvStr("HTTP_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("HTTP_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := getEnvBool("DB_TLS_INSECURE"); ok {
		c.Database.TLSInsecure = v
	}
	if v, ok := getEnvInt("DB_MAX_CONNS"); ok {
		c.Database.MaxConnections = v
	}
	if v, ok := getEnvStr("DB_IDLE_TIMEOUT"); ok {
		c.Database.IdleTimeout = v
	}
	if v, ok := getEnvStr("DB_CONNECT_TIMEOUT"); ok {
		c.Database.ConnectionTimeout = v
	}
	if v, ok := getEnvStr("DB_STATEMENT_TIMEOUT"); ok {
		c.Database.StatementTimeout = v
	}
	if v, ok := getEnvStr("DB_QUERY_TIMEOUT"); ok {
		c.Database.QueryTimeout = v
	}
	if v, ok := getEnvStr("DB_KEEPALIVE"); ok {
		c.Database.KeepAlive = v
	}
	if v, ok := getEnvInt("DB_RETRY_ATTEMPTS"); ok {
		c.Database.RetryAttempts = v
	}
	if v, ok := getEnvStr("DB_RETRY_INTERVAL"); ok {
		c.Database.RetryInterval = v
	}
	if v, ok := getEnvStr("MIGRATIONS_DIR"); ok {
		c.Database.MigrationsDir = v
	}

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
}
