package config

import (
	"alcyxob/gym-console/internal/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend and storage drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
	DriverS3     = "s3"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Locale   string         `mapstructure:"locale"`
	Plans    []domain.Plan  `mapstructure:"plans"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// BackendConfig selects the table store: "mongo" or "memory".
type BackendConfig struct {
	Driver string `mapstructure:"driver"`
}

// StorageConfig selects the object store: "s3" or "memory".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	AvatarsBucket   string `mapstructure:"avatars_bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"` // defaults to the endpoint
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AuthConfig controls session persistence and the startup session check.
// AdminEmail and AdminPassword, when set, describe the staff account that is
// ensured at startup so a fresh backend can be signed into.
type AuthConfig struct {
	SessionFile           string        `mapstructure:"session_file"`
	InitialSessionTimeout time.Duration `mapstructure:"initial_session_timeout"`
	AdminEmail            string        `mapstructure:"admin_email"`
	AdminPassword         string        `mapstructure:"admin_password"`
	AdminName             string        `mapstructure:"admin_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil // env vars and defaults are enough
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("backend.driver", DriverMemory)
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_console")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.avatars_bucket", "avatars")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("auth.session_file", "")
	v.SetDefault("auth.initial_session_timeout", "5s")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.admin_name", "Administrador")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("locale", "pt-BR")

	plans := make([]map[string]any, 0, 3)
	for _, p := range domain.DefaultPlans() {
		plans = append(plans, map[string]any{
			"id":            p.ID,
			"name":          p.DisplayName,
			"duration_days": p.DurationDays,
			"price":         p.Price,
		})
	}
	v.SetDefault("plans", plans)
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	switch c.Backend.Driver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}
	switch c.Storage.Driver {
	case DriverS3, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}
	if c.Auth.InitialSessionTimeout <= 0 {
		return errors.New("auth.initial_session_timeout must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return errors.New("auth.admin_email and auth.admin_password must be set together")
	}
	if c.Storage.Driver == DriverS3 && c.S3.AvatarsBucket == "" {
		return errors.New("s3.avatars_bucket is required for the s3 storage driver")
	}
	if _, err := domain.NewPlanCatalog(c.Plans); err != nil {
		return fmt.Errorf("plans: %w", err)
	}
	return nil
}
