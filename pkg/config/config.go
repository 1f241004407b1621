package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	GeoIP    GeoIPConfig
	Audit    AuditConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type EmailConfig struct {
	ResendAPIKey string
}

type GeoIPConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type AuditConfig struct {
	RetentionDays int
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "agrimarket-dev-secret"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		GeoIP: GeoIPConfig{
			BaseURL:        getEnv("GEOIP_API_URL", "http://ip-api.com/json"),
			TimeoutSeconds: getEnvInt("GEOIP_TIMEOUT_SECONDS", 5),
		},
		Audit: AuditConfig{
			RetentionDays: getEnvInt("LOGIN_RETENTION_DAYS", 90),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
