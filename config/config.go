package config

import (
	enclaveConfig "github.com/EnclaveRunner/shareddeps/config"
)

type AppConfig struct {
	enclaveConfig.BaseConfig `mapstructure:",squash"`

	Port     int    `mapstructure:"port"      validate:"required,numeric,min=1,max=65535"`
	MediaURL string `mapstructure:"media_url" validate:"required"`
	SiteURL  string `mapstructure:"site_url"`
	PageSize int    `mapstructure:"page_size" validate:"min=1,max=100"`

	Persistence PersistenceConfig `mapstructure:"persistence"`
	Images      ImagesConfig      `mapstructure:"images"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Redis       RedisConfig       `mapstructure:"redis"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type PersistenceConfig struct {
	// filesystem, s3 or memory
	Type       string   `mapstructure:"type"        validate:"oneof=filesystem s3 memory"`
	StorageDir string   `mapstructure:"storage_dir"`
	S3         S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyID     string `mapstructure:"key_id"`
	AccessKey string `mapstructure:"access_key"`
	Timeout   string `mapstructure:"timeout"`
}

type ImagesConfig struct {
	MaxWidth  int `mapstructure:"max_width"  validate:"min=1"`
	MaxHeight int `mapstructure:"max_height" validate:"min=1"`
	// MaxBytes bounds the decoded upload size
	MaxBytes int `mapstructure:"max_bytes" validate:"min=1"`
	// MaxPixels bounds width*height read from the image header
	MaxPixels int `mapstructure:"max_pixels" validate:"min=1"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL  string `mapstructure:"token_ttl"  validate:"required"`
}

type RedisConfig struct {
	// empty address keeps revoked tokens in process memory
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HTTPConfig struct {
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

var Cfg = &AppConfig{}

var Defaults = []enclaveConfig.DefaultValue{
	{Key: "port", Value: 8080},
	{Key: "media_url", Value: "/media/"},
	{Key: "site_url", Value: "http://localhost"},
	{Key: "page_size", Value: 6},

	{Key: "persistence.type", Value: "filesystem"},
	{Key: "persistence.storage_dir", Value: "media"},
	{Key: "persistence.s3.timeout", Value: "30s"},

	{Key: "images.max_width", Value: 1280},
	{Key: "images.max_height", Value: 1280},
	{Key: "images.max_bytes", Value: 10 << 20},
	{Key: "images.max_pixels", Value: 40_000_000},

	{Key: "auth.token_ttl", Value: "720h"},

	{Key: "redis.addr", Value: ""},
	{Key: "redis.db", Value: 0},

	{Key: "http.cors_origins", Value: []string{"*"}},
	{Key: "http.rate_limit", Value: 20.0},
	{Key: "http.rate_burst", Value: 40},

	{Key: "logging.level", Value: "info"},
	{Key: "logging.format", Value: "json"},

	{Key: "database.port", Value: 5432},
	{Key: "database.host", Value: "localhost"},
	{Key: "database.sslmode", Value: "disable"},
	{Key: "database.database", Value: "foodgram"},
}
