package config

import (
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Source is "csv" or "postgres".
	Source         string
	SalesCSVPath   string
	RentalsCSVPath string

	OutputCSVPath  string
	OutputJSONPath string
	HistoryDBPath  string

	MaxConcurrency int
	MaxRetries     int

	ProfilePath  string
	AnalysisCron string
	LogLevel     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "estimator"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "estimator"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Source:         getEnv("SOURCE", "csv"),
		SalesCSVPath:   getEnv("SALES_CSV_PATH", "./data/sales.csv"),
		RentalsCSVPath: getEnv("RENTALS_CSV_PATH", "./data/rentals.csv"),

		OutputCSVPath:  getEnv("OUTPUT_CSV_PATH", "./output/rental_estimates.csv"),
		OutputJSONPath: getEnv("OUTPUT_JSON_PATH", "./output/rental_estimates.json"),
		HistoryDBPath:  getEnv("HISTORY_DB_PATH", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", runtime.NumCPU()),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),

		ProfilePath:  getEnv("PROFILE_PATH", "./profile.yaml"),
		AnalysisCron: getEnv("ANALYSIS_CRON", "0 6 1 * *"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
