// Package config collects process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// GatewayConfig holds the merchant credentials for the payment gateway.
// Defaults are the processor's public sandbox values.
type GatewayConfig struct {
	StoreID       string
	StorePassword string
	EndpointURL   string
	Timeout       time.Duration
}

type Config struct {
	Port      string
	DBPath    string
	AppURL    string
	JWTSecret string
	SeedPath  string
	Gateway   GatewayConfig
}

// Load reads configuration from environment variables, applying defaults
// where unset. Callers load .env files before invoking this.
func Load() Config {
	return Config{
		Port:      envDefault("PORT", "8080"),
		DBPath:    envDefault("DB_PATH", "recruitment.db"),
		AppURL:    envDefault("APP_URL", "http://localhost:8080"),
		JWTSecret: envDefault("JWT_SECRET", "dev-secret-change-me"),
		SeedPath:  envDefault("SEED_PATH", "testdata/candidates.json"),
		Gateway: GatewayConfig{
			StoreID:       envDefault("GATEWAY_STORE_ID", "testbox"),
			StorePassword: envDefault("GATEWAY_STORE_PASS", "qwerty"),
			EndpointURL:   envDefault("GATEWAY_API_URL", "https://sandbox.sslcommerz.com/gwprocess/v4/api.php"),
			Timeout:       envSeconds("GATEWAY_TIMEOUT_SECONDS", 15),
		},
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
