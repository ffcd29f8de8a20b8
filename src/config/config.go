package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Images    ImagesConfig    `mapstructure:"images"`
	Cache     CacheConfig     `mapstructure:"cache"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

type ServiceConfig struct {
	Port             string        `mapstructure:"port"`
	LogLevel         string        `mapstructure:"logLevel"`
	LogFile          string        `mapstructure:"logFile"`
	RequestTimeout   time.Duration `mapstructure:"requestTimeout"`
	MaxJSONBodyBytes int64         `mapstructure:"maxJsonBodyBytes"`
	AllowedOrigins   []string      `mapstructure:"allowedOrigins"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MaxConns         int32  `mapstructure:"maxConns"`
	MinConns         int32  `mapstructure:"minConns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwtSecret"`
	JWTSecretID       string        `mapstructure:"jwtSecretId"`
	TokenLifetime     time.Duration `mapstructure:"tokenLifetime"`
	BcryptCost        int           `mapstructure:"bcryptCost"`
	MinPasswordLength int           `mapstructure:"minPasswordLength"`
}

// StorageConfig points at an S3-compatible bucket (Backblaze B2 in production).
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	PublicBaseURL   string `mapstructure:"publicBaseUrl"`
}

type ImagesConfig struct {
	MaxUploadBytes int64 `mapstructure:"maxUploadBytes"`
	MaxResizeWidth int   `mapstructure:"maxResizeWidth"`
}

type CacheDriver string

const (
	CacheNone   CacheDriver = "none"
	CacheMemory CacheDriver = "memory"
	CacheRedis  CacheDriver = "redis"
)

type CacheConfig struct {
	Driver CacheDriver   `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// envBindings maps config keys to the environment variables the mobile
// backend has always been deployed with.
var envBindings = map[string]string{
	"service.port":                    "PORT",
	"databases.sql.connection_string": "DATABASE_URL",
	"auth.jwtSecret":                  "JWT_SECRET",
	"storage.accessKeyId":             "AWS_ACCESS_KEY_ID",
	"storage.secretAccessKey":         "AWS_SECRET_ACCESS_KEY",
	"storage.endpoint":                "B2_S3_ENDPOINT",
	"storage.bucket":                  "B2_BUCKET_NAME",
	"storage.region":                  "B2_REGION",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.port", "8000")
	v.SetDefault("service.logLevel", "info")
	v.SetDefault("service.requestTimeout", 10*time.Second)
	v.SetDefault("service.maxJsonBodyBytes", 50<<20)
	v.SetDefault("service.allowedOrigins", []string{"*"})
	v.SetDefault("databases.sql.maxConns", 10)
	v.SetDefault("databases.sql.minConns", 1)
	v.SetDefault("auth.tokenLifetime", 200*365*24*time.Hour)
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.minPasswordLength", 6)
	v.SetDefault("storage.region", "us-west-000")
	v.SetDefault("images.maxUploadBytes", 25<<20)
	v.SetDefault("images.maxResizeWidth", 10000)
	v.SetDefault("cache.driver", string(CacheNone))
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("aws.region", "us-east-1")
}

// LoadConfig reads settings/appsettings.yaml, or appsettings.<env>.yaml when
// env is set. Environment variables override file values.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	name := "appsettings"
	if env != "" {
		name = fmt.Sprintf("appsettings.%s", env)
	}
	v.AddConfigPath(path)
	v.SetConfigName(name)
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envName := range envBindings {
		if err := v.BindEnv(key, envName); err != nil {
			return nil, err
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && c.Auth.JWTSecretID == "" {
		return errors.New("auth.jwtSecret or auth.jwtSecretId must be set")
	}
	switch c.Cache.Driver {
	case CacheNone:
	case CacheMemory, CacheRedis:
		if c.Cache.TTL < time.Millisecond {
			return errors.New("cache.ttl must be at least 1ms")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Images.MaxResizeWidth <= 0 {
		return errors.New("images.maxResizeWidth must be positive")
	}
	return nil
}

// DSN returns the Postgres connection string, building it from the individual
// fields when no explicit connection string is configured.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host,
		c.Username,
		c.Password,
		c.Database,
		c.Port)
}
