package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
)

// Config es inmutable una vez pasada a Open.
type Config struct {
	URL string
	// TLSInsecure desactiva la verificación del certificado del servidor
	// cuando la conexión usa TLS (certificados autofirmados).
	TLSInsecure bool

	MaxConnections    int
	IdleTimeout       time.Duration
	ConnectionTimeout time.Duration
	StatementTimeout  time.Duration
	QueryTimeout      time.Duration
	KeepAlive         time.Duration

	// HealthCheckPeriod es el intervalo del ping de fondo que reporta EventError.
	// 0 lo desactiva.
	HealthCheckPeriod time.Duration

	RetryAttempts int
	RetryInterval time.Duration
}

// DefaultConfig retorna los valores de tuning del pool.
func DefaultConfig() Config {
	return Config{
		MaxConnections:    10,
		IdleTimeout:       10 * time.Second,
		ConnectionTimeout: 5 * time.Second,
		StatementTimeout:  30 * time.Second,
		QueryTimeout:      30 * time.Second,
		KeepAlive:         30 * time.Second,
		HealthCheckPeriod: 30 * time.Second,
		RetryAttempts:     3,
		RetryInterval:     time.Second,
	}
}

// FromConfig traduce la config del proceso a la del gateway.
func FromConfig(c *config.Config) (Config, error) {
	out := DefaultConfig()
	out.URL = strings.TrimSpace(c.Database.URL)
	out.TLSInsecure = c.Database.TLSInsecure
	out.MaxConnections = c.Database.MaxConnections
	out.RetryAttempts = c.Database.RetryAttempts

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"idle_timeout", c.Database.IdleTimeout, &out.IdleTimeout},
		{"connection_timeout", c.Database.ConnectionTimeout, &out.ConnectionTimeout},
		{"statement_timeout", c.Database.StatementTimeout, &out.StatementTimeout},
		{"query_timeout", c.Database.QueryTimeout, &out.QueryTimeout},
		{"keep_alive", c.Database.KeepAlive, &out.KeepAlive},
		{"retry_interval", c.Database.RetryInterval, &out.RetryInterval},
	}
	for _, d := range durations {
		v, err := config.ParseDuration(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, d.name, err)
		}
		*d.dst = v
	}
	return out, out.validate()
}

func (c Config) validate() error {
	switch {
	case c.MaxConnections <= 0:
		return fmt.Errorf("%w: max connections must be > 0", ErrInvalidConfig)
	case c.RetryAttempts <= 0:
		return fmt.Errorf("%w: retry attempts must be > 0", ErrInvalidConfig)
	case c.RetryInterval < 0:
		return fmt.Errorf("%w: retry interval must be >= 0", ErrInvalidConfig)
	}
	return nil
}
