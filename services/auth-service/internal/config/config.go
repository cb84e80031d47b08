package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// AuthServiceConfig holds the configuration of the auth service.
type AuthServiceConfig struct {
	Name      string `env:"SERVICE_NAME" envDefault:"auth-service"`
	LogLevel  string `env:"LOG_LEVEL"    envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"   envDefault:"false"`

	HTTP   HTTPConfig
	GRPC   GRPCConfig
	Mongo  MongoConfig
	Code   CodeConfig
	Redis  RedisConfig
	Consul ConsulConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST"             envDefault:"0.0.0.0"`
	Port            int           `env:"HTTP_PORT"             envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// GRPCConfig configures the gRPC listener that only serves health checks.
type GRPCConfig struct {
	Host string `env:"GRPC_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"GRPC_PORT" envDefault:"9090"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI"`
	Database       string        `env:"MONGO_DATABASE"        envDefault:"nikopeshe"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
}

// CodeConfig controls the codes sent by email.
type CodeConfig struct {
	Digits                 int           `env:"CODE_DIGITS"                     envDefault:"4"`
	VerificationExpiresIn  time.Duration `env:"VERIFICATION_CODE_EXPIRES_IN"    envDefault:"1h"`
	PasswordResetExpiresIn time.Duration `env:"PASSWORD_RESET_CODE_EXPIRES_IN"  envDefault:"1h"`
	EmailChangeExpiresIn   time.Duration `env:"EMAIL_CHANGE_CODE_EXPIRES_IN"    envDefault:"1h"`
	// Retention keeps expired codes this long before Mongo purges them.
	// Zero disables purging.
	Retention time.Duration `env:"CODE_RETENTION" envDefault:"0s"`
}

// RedisConfig is optional. Without an address no per-user lease is taken.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
	// LockTTL bounds a lease that is held across the SMTP send, which has no
	// timeout of its own. A send that outlasts it leaves the request
	// unserialized, so keep it above the slowest expected SMTP round trip.
	LockTTL  time.Duration `env:"LOCK_TTL"  envDefault:"1m"`
	LockWait time.Duration `env:"LOCK_WAIT" envDefault:"3s"`
}

// ConsulConfig is optional. Without an address the service does not register.
type ConsulConfig struct {
	Addr            string        `env:"CONSUL_ADDR"`
	ServiceAddress  string        `env:"SERVICE_ADDRESS"`
	CheckInterval   time.Duration `env:"CONSUL_CHECK_INTERVAL"   envDefault:"10s"`
	DeregisterAfter time.Duration `env:"CONSUL_DEREGISTER_AFTER" envDefault:"1m"`
}

// NewAuthServiceConfig loads the configuration from environment variables and
// stops the process if it is invalid.
func NewAuthServiceConfig(logger *zerolog.Logger) *AuthServiceConfig {
	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load auth service configuration")
	}

	return cfg
}

// Load parses and validates the configuration from environment variables.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AuthServiceConfig) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("missing MONGO_URI environment variable")
	}
	if c.Mongo.Database == "" {
		return errors.New("missing MONGO_DATABASE environment variable")
	}
	if c.Code.Digits < 4 || c.Code.Digits > 10 {
		return fmt.Errorf("CODE_DIGITS must be between 4 and 10, got %d", c.Code.Digits)
	}
	if c.Code.VerificationExpiresIn <= 0 ||
		c.Code.PasswordResetExpiresIn <= 0 ||
		c.Code.EmailChangeExpiresIn <= 0 {
		return errors.New("code expiry durations must be positive")
	}
	if c.Code.Retention < 0 {
		return errors.New("CODE_RETENTION must not be negative")
	}
	if c.Redis.LockTTL <= c.Redis.LockWait {
		return errors.New("LOCK_TTL must be greater than LOCK_WAIT")
	}
	if c.HTTP.Port <= 0 || c.GRPC.Port <= 0 {
		return errors.New("HTTP_PORT and GRPC_PORT must be positive")
	}
	if c.HTTP.Port == c.GRPC.Port {
		return errors.New("HTTP_PORT and GRPC_PORT must differ")
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns the gRPC listen address.
func (c GRPCConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
