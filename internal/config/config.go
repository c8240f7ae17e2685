package config

import (
	"fmt"
	"os"
)

// Config holds all configuration for our application
type Config struct {
	Port          string
	Origin        string
	Environment   string
	SessionSecret string
	Database      DatabaseConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "mysql"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "swiftmeet"),
	}

	switch dbConfig.Driver {
	case "sqlite":
		// For sqlite the DSN is just a file path.
		dbConfig.DSN = getEnv("DB_PATH", "swiftmeet.db")
	default:
		// Build DSN (Data Source Name) for MySQL connection
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	}

	return &Config{
		Port:          getEnv("PORT", "5000"),
		Origin:        getEnv("ORIGIN", "http://localhost:5000"),
		Environment:   getEnv("APP_ENV", "development"),
		SessionSecret: getEnv("SESSION_SECRET", "swiftmeet-dev-secret"),
		Database:      dbConfig,
	}
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
