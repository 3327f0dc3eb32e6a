package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Cloudinary CloudinaryConfig
	OpenAI     OpenAIConfig
	Shopify    ShopifyConfig
	Log        LogConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name string
	Env  string
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds the submission history store settings.
type DatabaseConfig struct {
	Path string // sqlite file path
}

// RedisConfig holds the collection cache settings. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the listing event producer settings. An empty Broker
// disables event publishing.
type KafkaConfig struct {
	Broker string
	Topic  string
}

// CloudinaryConfig holds media host credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// OpenAIConfig holds inference backend settings. BaseURL may point at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ShopifyConfig holds storefront platform credentials.
type ShopifyConfig struct {
	StoreDomain    string
	AccessToken    string
	APIVersion     string
	Timeout        time.Duration
	MetafieldPause time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

var (
	ErrMissingCloudinaryCredentials = errors.New("config: cloudinary cloud name, api key and api secret are required")
	ErrMissingOpenAIKey             = errors.New("config: openai api key is required")
	ErrMissingShopifyCredentials    = errors.New("config: shopify store domain and access token are required")
)

// Load reads configuration from an optional config.toml plus environment
// variables with the LISTING_ prefix (e.g. LISTING_SHOPIFY_ACCESS_TOKEN).
// Env vars win over the file, the file wins over built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		// No file is fine; defaults and env vars carry the day.
	}

	v.SetEnvPrefix("LISTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		HTTP: HTTPConfig{
			Addr:         v.GetString("http.addr"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Broker: v.GetString("kafka.broker"),
			Topic:  v.GetString("kafka.topic"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("cloudinary.cloud_name"),
			APIKey:    v.GetString("cloudinary.api_key"),
			APISecret: v.GetString("cloudinary.api_secret"),
			Timeout:   v.GetDuration("cloudinary.timeout"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
			Model:   v.GetString("openai.model"),
		},
		Shopify: ShopifyConfig{
			StoreDomain:    v.GetString("shopify.store_domain"),
			AccessToken:    v.GetString("shopify.access_token"),
			APIVersion:     v.GetString("shopify.api_version"),
			Timeout:        v.GetDuration("shopify.timeout"),
			MetafieldPause: v.GetDuration("shopify.metafield_pause"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	return cfg, nil
}

// Validate checks that every credential the pipeline cannot run without is
// present.
func (c *Config) Validate() error {
	if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
		return ErrMissingCloudinaryCredentials
	}
	if c.OpenAI.APIKey == "" {
		return ErrMissingOpenAIKey
	}
	if c.Shopify.StoreDomain == "" || c.Shopify.AccessToken == "" {
		return ErrMissingShopifyCredentials
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "listing-backend")
	v.SetDefault("app.env", "development")

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 120*time.Second)

	v.SetDefault("database.path", "./data/listings.db")

	v.SetDefault("kafka.topic", "listing.accepted")

	v.SetDefault("cloudinary.timeout", 60*time.Second)

	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.timeout", 30*time.Second)
	v.SetDefault("shopify.metafield_pause", 200*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}
