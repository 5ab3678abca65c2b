// Package config holds the service configuration and its validation rules.
package config

import (
	"fmt"
	"strings"
	"time"
)

var _ Validator = (*Config)(nil)

type Config struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	GRPC       GRPCConfig     `koanf:"grpc"`
	Log        LogConfig      `koanf:"log"`
	Snapshot   SnapshotConfig `koanf:"snapshot"`
	Redis      RedisConfig    `koanf:"redis"`
	Catalog    CatalogConfig  `koanf:"catalog"`
	MySQL      MySQLConfig    `koanf:"mysql"`
	NATS       NATSConfig     `koanf:"nats"`
	Notify     NotifyConfig   `koanf:"notify"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxheaderbytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readheader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

type GRPCConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

func (c *GRPCConfig) Validate() error {
	if c.Enabled && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.Port)
	}
	return nil
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown log level: %q", c.Level)
}

const (
	SnapshotDriverRedis  = "redis"
	SnapshotDriverMemory = "memory"
)

type SnapshotConfig struct {
	Driver string        `koanf:"driver"`
	Key    string        `koanf:"key"`
	TTL    time.Duration `koanf:"ttl"`
}

func (c *SnapshotConfig) Validate() error {
	if c.Driver != SnapshotDriverRedis && c.Driver != SnapshotDriverMemory {
		return fmt.Errorf("unknown snapshot driver: %q", c.Driver)
	}
	if c.Key == "" {
		return fmt.Errorf("snapshot key is not configured")
	}
	if c.TTL < 0 {
		return fmt.Errorf("snapshot ttl must not be negative")
	}
	return nil
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"poolsize"`
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	return nil
}

const (
	CatalogDriverHTTP   = "http"
	CatalogDriverMySQL  = "mysql"
	CatalogDriverStatic = "static"
)

type CatalogConfig struct {
	Driver         string               `koanf:"driver"`
	BaseURL        string               `koanf:"baseurl"`
	Timeout        time.Duration        `koanf:"timeout"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
	Seed           []SeedProduct        `koanf:"seed"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	MaxRequests         uint32        `koanf:"maxrequests"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// SeedProduct is one entry of the static catalog.
type SeedProduct struct {
	ID    int64   `koanf:"id"`
	Title string  `koanf:"title"`
	Price float64 `koanf:"price"`
	Image string  `koanf:"image"`
	Stock int     `koanf:"stock"`
}

func (c *CatalogConfig) Validate() error {
	switch c.Driver {
	case CatalogDriverHTTP:
		if c.BaseURL == "" {
			return fmt.Errorf("catalog base url is not configured")
		}
		if c.Timeout <= 0 {
			return fmt.Errorf("catalog timeout is not configured")
		}
		if c.CircuitBreaker.ConsecutiveFailures == 0 {
			return fmt.Errorf("catalog.circuitbreaker.consecutivefailures must be greater than 0")
		}
		if c.CircuitBreaker.OpenTimeout <= 0 {
			return fmt.Errorf("catalog.circuitbreaker.opentimeout must be greater than 0")
		}
	case CatalogDriverMySQL, CatalogDriverStatic:
	default:
		return fmt.Errorf("unknown catalog driver: %q", c.Driver)
	}
	for _, p := range c.Seed {
		if p.Stock < 0 {
			return fmt.Errorf("catalog seed product %d has negative stock", p.ID)
		}
	}
	return nil
}

type MySQLConfig struct {
	DSN          string        `koanf:"dsn"`
	MaxOpenConns int           `koanf:"maxopenconns"`
	MaxIdleConns int           `koanf:"maxidleconns"`
	ConnLifetime time.Duration `koanf:"connlifetime"`
}

func (c *MySQLConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("mysql dsn is not configured")
	}
	return nil
}

type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Subject string        `koanf:"subject"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if c.Subject == "" {
		return fmt.Errorf("NATS subject is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}

type NotifyConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queuesize"`
}

func (c *NotifyConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("notify.workers must be greater than 0")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("notify.queuesize must be greater than 0")
	}
	return nil
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

// Validate checks every section, backing services only when they are in use.
func (c *Config) Validate() error {
	checks := []Validator{&c.HTTPServer, &c.GRPC, &c.Log, &c.Snapshot, &c.Catalog, &c.NATS, &c.Notify, &c.Shutdown}
	if c.Snapshot.Driver == SnapshotDriverRedis {
		checks = append(checks, &c.Redis)
	}
	if c.Catalog.Driver == CatalogDriverMySQL {
		checks = append(checks, &c.MySQL)
	}
	for _, v := range checks {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  grpc.enabled: %t\n", c.GRPC.Enabled))
	b.WriteString(fmt.Sprintf("  grpc.port: %d\n", c.GRPC.Port))

	b.WriteString("\n--- Cart Snapshot ---\n")
	b.WriteString(fmt.Sprintf("  snapshot.driver: %s\n", c.Snapshot.Driver))
	b.WriteString(fmt.Sprintf("  snapshot.key: %s\n", c.Snapshot.Key))
	b.WriteString(fmt.Sprintf("  redis.addr: %s\n", c.Redis.Addr))
	b.WriteString(fmt.Sprintf("  redis.password: %s\n", mask(c.Redis.Password)))

	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  catalog.driver: %s\n", c.Catalog.Driver))
	b.WriteString(fmt.Sprintf("  catalog.baseurl: %s\n", c.Catalog.BaseURL))
	b.WriteString(fmt.Sprintf("  catalog.timeout: %s\n", c.Catalog.Timeout))
	b.WriteString(fmt.Sprintf("  catalog.seed: %d products\n", len(c.Catalog.Seed)))
	b.WriteString(fmt.Sprintf("  mysql.dsn: %s\n", maskDSN(c.MySQL.DSN)))

	b.WriteString("\n--- Notifications ---\n")
	b.WriteString(fmt.Sprintf("  nats.enabled: %t\n", c.NATS.Enabled))
	b.WriteString(fmt.Sprintf("  nats.url: %s\n", c.NATS.URL))
	b.WriteString(fmt.Sprintf("  nats.subject: %s\n", c.NATS.Subject))
	b.WriteString(fmt.Sprintf("  notify.workers: %d\n", c.Notify.Workers))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}

// maskDSN hides the credentials part of user:pass@tcp(host)/db.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "<not configured>"
	}
	if i := strings.LastIndex(dsn, "@"); i >= 0 {
		return "****" + dsn[i:]
	}
	return "****"
}
