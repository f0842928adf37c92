package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql, postgres or sqlite
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

type MediaConfig struct {
	Backend        string `mapstructure:"backend"` // local or s3
	Root           string `mapstructure:"root"`
	URLPrefix      string `mapstructure:"url_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"` // Optional, for S3 compatible stores
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PublicURL string `mapstructure:"public_url"`
}

type ConsulConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Address       string `mapstructure:"address"`
	AdvertiseHost string `mapstructure:"advertise_host"`
}

type Config struct {
	HTTPPort    int            `mapstructure:"http_port"`
	GRPCPort    int            `mapstructure:"grpc_port"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	JwtSecret   string         `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration  `mapstructure:"token_ttl"`
	Database    DatabaseConfig `mapstructure:"database"`
	Media       MediaConfig    `mapstructure:"media"`
	S3          S3Config       `mapstructure:"s3"`
	Consul      ConsulConfig   `mapstructure:"consul"`
}

var AppConfig Config

const insecureDefaultSecret = "default-very-insecure-secret-key"

// SetDefaults registers a default for every key so that env-only deployments
// still unmarshal into a complete Config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8000)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "recipe-api")
	v.SetDefault("jwt_secret", insecureDefaultSecret) // CHANGE THIS IN PRODUCTION
	v.SetDefault("token_ttl", "24h")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "recipe.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("media.backend", "local")
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url_prefix", "/media/")
	v.SetDefault("media.max_upload_bytes", 10<<20)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_url", "")

	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("consul.advertise_host", "127.0.0.1")
}

// Load reads configuration into a fresh Config without touching AppConfig.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable overrides, e.g. RECIPEAPI_DATABASE_DSN
	v.SetEnvPrefix("RECIPEAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

// InitConfig loads the configuration into AppConfig.
func InitConfig() error {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("fatal error loading config: %w", err)
	}
	AppConfig = cfg
	return nil
}

// UsesInsecureSecret reports whether the JWT secret was left at its default.
func (c Config) UsesInsecureSecret() bool {
	return c.JwtSecret == insecureDefaultSecret
}
