package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration marks missing or unparseable configuration and resource files.
// It is always fatal for the run.
var ErrConfiguration = errors.New("configuration error")

const defaultConfigPath = "config.yaml"

var (
	validate *validator.Validate
)

func init() {
	validate = validator.New()
}

// registerDefaults sets defaults for fields where zero is a meaningful value
func registerDefaults(v *viper.Viper) {
	v.SetDefault("test.scenario", ScenarioSequential)
	v.SetDefault("test.eventId", "Event1")
	v.SetDefault("test.venueId", "Venue1")
	v.SetDefault("test.users", 2000)
	v.SetDefault("test.seatsPerUser", 78)
	v.SetDefault("test.duplicateRatio", 0.2)
	v.SetDefault("test.verifyProbability", 0.5)
	v.SetDefault("test.thinkTime", "10s")
	v.SetDefault("test.waitTime", "500ms")
	v.SetDefault("deterministic.zoneId", 1)
	v.SetDefault("deterministic.startColumn", 6)
	v.SetDefault("deterministic.totalSeats", 100)
	v.SetDefault("deterministic.seatsPerUser", 2)
	v.SetDefault("deterministic.verifyProbability", 1.0)
	v.SetDefault("metrics.listenAddress", ":2112")
}

// SetDefaults sets default values for optional fields
func SetDefaults(cfg *Config) {
	if cfg.Target.RequestTimeout <= 0 {
		cfg.Target.RequestTimeout = 30 * time.Second
	}
	if cfg.Test.BurstMultiplier <= 0 {
		cfg.Test.BurstMultiplier = 2.0
	}
	if cfg.Resources.Dir == "" {
		cfg.Resources.Dir = "resources"
	}
	if cfg.Resources.Service == "" {
		cfg.Resources.Service = "purchase-service"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "ticket_load_test"
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "text"
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set in the environment take precedence.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// LoadAndValidate loads configuration from YAML file, folds in environment
// overrides and validates the result. The returned Config is read-only.
func LoadAndValidate(path string) (*Config, error) {
	return LoadAndValidateWithOverrides(path, nil)
}

// LoadAndValidateWithOverrides is LoadAndValidate with command line overrides
// keyed by config path (e.g. "test.scenario"). Overrides win over the file and
// are validated like file values.
func LoadAndValidateWithOverrides(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	// Explicit path first, then environment, then the working directory default
	configPath := path
	if configPath == "" {
		configPath = os.Getenv("LOAD_CONFIG_FILE")
		if configPath == "" {
			configPath = os.Getenv("CONFIG_FILE")
			if configPath == "" {
				configPath = defaultConfigPath
			}
		}
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	registerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, configPath, err)
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", ErrConfiguration, err)
	}

	SetDefaults(&cfg)
	ApplyEnv(&cfg, os.Getenv)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: config validation failed: %v", ErrConfiguration, err)
	}

	return &cfg, nil
}

// validateConfig validates the configuration struct
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Test.Scenario == ScenarioDeterministic && cfg.Deterministic.SeatsPerUser > cfg.Deterministic.TotalSeats {
		return fmt.Errorf("deterministic seatsPerUser (%d) exceeds totalSeats (%d)",
			cfg.Deterministic.SeatsPerUser, cfg.Deterministic.TotalSeats)
	}

	return nil
}

// formatValidationError formats validator errors into a readable string
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var errMsgs []string
		for _, e := range validationErrors {
			errMsgs = append(errMsgs, fmt.Sprintf("field '%s' failed validation: %s", e.Namespace(), getValidationErrorMsg(e)))
		}
		return fmt.Errorf("%s", strings.Join(errMsgs, "; "))
	}
	return err
}

// getValidationErrorMsg returns a human-readable error message for validation errors
func getValidationErrorMsg(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "url":
		return "must be an absolute URL"
	default:
		return fmt.Sprintf("failed validation tag: %s", e.Tag())
	}
}
