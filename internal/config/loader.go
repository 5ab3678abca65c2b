package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "CART_"

type Validator interface {
	Validate() error
}

// Defaults are loaded before any file or environment source.
var Defaults = map[string]any{
	"server.port":               8080,
	"server.maxheaderbytes":     1 << 20,
	"server.timeout.read":       "5s",
	"server.timeout.write":      "10s",
	"server.timeout.idle":       "60s",
	"server.timeout.readheader": "2s",
	"grpc.enabled":              true,
	"grpc.port":                 50051,
	"log.level":                 "info",
	"snapshot.driver":           SnapshotDriverRedis,
	"snapshot.key":              "storefront:cart",
	"redis.addr":                "localhost:6379",
	"redis.poolsize":            10,
	"catalog.driver":            CatalogDriverHTTP,
	"catalog.baseurl":           "http://localhost:3333",
	"catalog.timeout":           "3s",
	"catalog.circuitbreaker.consecutivefailures": 5,
	"catalog.circuitbreaker.maxrequests":         1,
	"catalog.circuitbreaker.opentimeout":         "10s",
	"mysql.maxopenconns":                         10,
	"mysql.maxidleconns":                         5,
	"mysql.connlifetime":                         "5m",
	"nats.subject":                               "storefront.cart.notifications",
	"nats.timeout":                               "5s",
	"notify.workers":                             2,
	"notify.queuesize":                           256,
	"shutdown.timeout":                           "10s",
}

// Load reads defaults, then configFile, then .env, then CART_* environment variables.
// Later sources win.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	if envFileMap, err := godotenv.Read(".env"); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if strings.HasPrefix(key, EnvPrefix) {
				envMap[envKey(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps CART_CATALOG_BASEURL to catalog.baseurl.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}
