package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"piquant/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathConfig
	Simulation SimulationConfig
	Assessment AssessmentConfig
	Database   DatabaseConfig
	Server     ServerConfig
	LogLevel   string
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// SimulationConfig holds read simulation and quantification settings
type SimulationConfig struct {
	NumFragments int
	Threads      int
}

// AssessmentConfig holds accuracy assessment settings
type AssessmentConfig struct {
	DetectionThreshold float64
	Workers            int
}

// DatabaseConfig holds the optional results store connection. An empty DSN
// disables the store.
type DatabaseConfig struct {
	DSN string
}

// ServerConfig holds status server settings
type ServerConfig struct {
	Addr string
}

const (
	DefaultOutputDir    = "output"
	DefaultNumFragments = 1000000000
	DefaultThreads      = 8
	DefaultWorkers      = 4
	DefaultStatusAddr   = ":8090"
	DefaultThreshold    = 0.1
)

// Load reads a .env file if one exists, then environment variables, and
// validates the result
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.WrapCode(err, errors.CodeConfigInvalid, "failed to read .env file")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	config := &Config{
		Paths: PathConfig{
			OutputDir: getEnvOrDefault("PIQUANT_OUTPUT_DIR", DefaultOutputDir),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("PIQUANT_RESULTS_DSN"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("PIQUANT_STATUS_ADDR", DefaultStatusAddr),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if config.Simulation.NumFragments, err = getEnvInt("PIQUANT_NUM_FRAGMENTS", DefaultNumFragments); err != nil {
		return nil, err
	}
	if config.Simulation.Threads, err = getEnvInt("PIQUANT_THREADS", DefaultThreads); err != nil {
		return nil, err
	}
	if config.Assessment.Workers, err = getEnvInt("PIQUANT_WORKERS", DefaultWorkers); err != nil {
		return nil, err
	}
	if config.Assessment.DetectionThreshold, err = getEnvFloat("PIQUANT_DETECTION_THRESHOLD", DefaultThreshold); err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Simulation.NumFragments <= 0 {
		return errors.InvalidOption("PIQUANT_NUM_FRAGMENTS", strconv.Itoa(config.Simulation.NumFragments),
			"Number of fragments must be a positive integer")
	}
	if config.Simulation.Threads <= 0 {
		return errors.InvalidOption("PIQUANT_THREADS", strconv.Itoa(config.Simulation.Threads),
			"Thread count must be a positive integer")
	}
	if config.Assessment.Workers <= 0 {
		return errors.InvalidOption("PIQUANT_WORKERS", strconv.Itoa(config.Assessment.Workers),
			"Worker count must be a positive integer")
	}
	if config.Assessment.DetectionThreshold < 0 {
		return errors.InvalidOption("PIQUANT_DETECTION_THRESHOLD",
			strconv.FormatFloat(config.Assessment.DetectionThreshold, 'g', -1, 64),
			"Detection threshold must not be negative")
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

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.InvalidOption(key, value, "Value must be an integer")
	}
	return i, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.InvalidOption(key, value, "Value must be a number")
	}
	return f, nil
}
