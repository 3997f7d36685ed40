package config

import (
	"os"
	"strconv"
	"time"

	"regsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig `validate:"required"`
	Server     ServerConfig   `validate:"required"`
	Simulation SimulationConfig
	Export     ExportConfig
	Profiling  ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string `validate:"required"`
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// SimulationConfig holds run defaults and concurrency limits
type SimulationConfig struct {
	DefaultTrials int
	DefaultSeed   int64
	Workers       int
	MaxConcurrent int64
}

// ExportConfig holds result serialization settings
type ExportConfig struct {
	Dir    string
	Format string // xlsx, csv or none
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load database configuration
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	// Load server configuration
	serverConfig := loadServerConfig()
	config.Server = *serverConfig

	// Load simulation configuration
	simConfig := loadSimulationConfig()
	config.Simulation = *simConfig

	// Load export configuration
	exportConfig := loadExportConfig()
	config.Export = *exportConfig

	// Load profiling configuration
	profilingConfig := loadProfilingConfig()
	config.Profiling = *profilingConfig

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:      url,
		User:     getEnvOrDefault("DB_USER", ""),
		Password: getEnvOrDefault("DB_PASS", ""),
		Name:     getEnvOrDefault("DB_NAME", ""),
		Host:     getEnvOrDefault("DB_HOST", ""),
		Port:     getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode:  getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		DefaultTrials: getEnvIntOrDefault("SIM_DEFAULT_TRIALS", 1000),
		DefaultSeed:   getEnvInt64OrDefault("SIM_DEFAULT_SEED", 42),
		Workers:       getEnvIntOrDefault("SIM_WORKERS", 1),
		MaxConcurrent: getEnvInt64OrDefault("SIM_MAX_CONCURRENT", 4),
	}
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		Dir:    getEnvOrDefault("EXPORT_DIR", "./results"),
		Format: getEnvOrDefault("EXPORT_FORMAT", "xlsx"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Simulation.Workers < 1 {
		return errors.ConfigInvalid("SIM_WORKERS must be at least 1")
	}
	if config.Simulation.MaxConcurrent < 1 {
		return errors.ConfigInvalid("SIM_MAX_CONCURRENT must be at least 1")
	}
	switch config.Export.Format {
	case "xlsx", "csv", "none":
	default:
		return errors.ConfigInvalid("EXPORT_FORMAT must be xlsx, csv or none")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Duration parsing helper (for future use)
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
