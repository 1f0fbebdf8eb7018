// Package config assembles the application configuration from defaults,
// command-line flags and environment variables (in that order of precedence,
// environment winning), with validation on the resulting values.
package config

import (
	"flag"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config describes the runtime settings of the service.
type Config struct {
	// RunAddr is the address and port the HTTP server listens on.
	RunAddr string `env:"SERVER_ADDRESS" validate:"hostname_port"`

	// LogLevel is the zap logging level.
	LogLevel string `env:"LOG_LEVEL" validate:"loglevel"`

	// DatabaseDSN selects the PostgreSQL backend when non-empty.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// DBFileName selects the JSON file backend when non-empty and no DSN is set.
	DBFileName string `env:"FILE_STORAGE_PATH"`

	// DBConnectionTimeout bounds storage pings.
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`

	// MigrationsDir is the goose migrations directory for the PostgreSQL backend.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// TokenSigningSecretKey is the required, environment-provided HMAC key
	// for bearer tokens, URL-safe base64 encoded. There is no in-code default.
	TokenSigningSecretKey string `env:"TOKEN_SIGNING_SECRET_KEY" validate:"required,base64url"`

	// TokenTTL is the lifetime of issued bearer tokens.
	TokenTTL time.Duration `env:"TOKEN_TTL"`

	// TrustedSubnet guards the internal stats endpoint; empty disables it.
	TrustedSubnet string `env:"TRUSTED_SUBNET"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/quirknotes/migrations",
	TokenTTL:            time.Hour,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validate(values *Config) error {
	theValidator := validator.New()

	err := theValidator.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return theValidator.Struct(values)
}

// InitOption defines a functional option for configuring the New call.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flag parsing;
// tests use it because the test binary owns the flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds a validated Config from defaults, flags and environment.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := defaultConfig

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "goose migrations directory")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "trusted subnet for the internal stats endpoint, CIDR notation")
		flag.DurationVar(&values.TokenTTL, "token-ttl", values.TokenTTL, "bearer token lifetime")
		flag.Parse()
	}

	// env.Parse only touches fields whose environment variables are present,
	// so the environment overrides both defaults and flags.
	err = env.Parse(&values)
	if err != nil {
		return nil, err
	}

	if err := validate(&values); err != nil {
		return nil, err
	}

	return &values, nil
}
