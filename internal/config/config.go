package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Storage      StorageConfig
	Database     DatabaseConfig
	GoogleSearch GoogleSearchConfig
	Replicate    ReplicateConfig
	Search       SearchConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	SearchPerMin int
	TryonPerMin  int
}

// StorageConfig holds S3-compatible object storage credentials. Empty
// credentials disable real uploads and services fall back to mock URLs.
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type DatabaseConfig struct {
	URL string
}

type GoogleSearchConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string
}

type ReplicateConfig struct {
	APIToken   string
	BaseURL    string
	TryonModel string
}

// SearchConfig controls how the text query for image search is derived.
// QueryStrategy is one of "default", "clothing_type" or "labels"; the
// choice is fixed at startup, there is no runtime fallback between
// strategies.
type SearchConfig struct {
	QueryStrategy string
	DefaultQuery  string
	LabelModel    string
}

const (
	QueryStrategyDefault      = "default"
	QueryStrategyClothingType = "clothing_type"
	QueryStrategyLabels       = "labels"
)

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("AWS_ACCESS_KEY_ID")
	readSecret("AWS_SECRET_ACCESS_KEY")
	readSecret("DATABASE_URL")
	readSecret("GOOGLE_SEARCH_API_KEY")
	readSecret("REPLICATE_API_TOKEN")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.search_per_min", "RATELIMIT_SEARCH_PER_MIN")
	_ = viper.BindEnv("ratelimit.tryon_per_min", "RATELIMIT_TRYON_PER_MIN")
	_ = viper.BindEnv("storage.endpoint", "S3_ENDPOINT")
	_ = viper.BindEnv("storage.access_key_id", "AWS_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.bucket_name", "S3_BUCKET")
	_ = viper.BindEnv("storage.public_url", "CDN_PUBLIC_URL")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("google_search.api_key", "GOOGLE_SEARCH_API_KEY")
	_ = viper.BindEnv("google_search.engine_id", "GOOGLE_SEARCH_ENGINE_ID")
	_ = viper.BindEnv("google_search.base_url", "GOOGLE_SEARCH_BASE_URL")
	_ = viper.BindEnv("replicate.api_token", "REPLICATE_API_TOKEN")
	_ = viper.BindEnv("replicate.base_url", "REPLICATE_BASE_URL")
	_ = viper.BindEnv("replicate.tryon_model", "REPLICATE_TRYON_MODEL")
	_ = viper.BindEnv("search.query_strategy", "SEARCH_QUERY_STRATEGY")
	_ = viper.BindEnv("search.default_query", "SEARCH_DEFAULT_QUERY")
	_ = viper.BindEnv("search.label_model", "SEARCH_LABEL_MODEL")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.search_per_min", 30)
	viper.SetDefault("ratelimit.tryon_per_min", 10)

	// Storage defaults
	viper.SetDefault("storage.endpoint", "https://bucket.poehali.dev")
	viper.SetDefault("storage.bucket_name", "files")
	viper.SetDefault("storage.public_url", "https://cdn.poehali.dev")

	// Google Custom Search defaults
	viper.SetDefault("google_search.base_url", "https://www.googleapis.com")

	// Replicate defaults
	viper.SetDefault("replicate.base_url", "https://api.replicate.com")
	viper.SetDefault("replicate.tryon_model", "cuuupid/idm-vton:c871bb9b046607b680449ecbae55fd8c6d945e0a1948644bf2361b3d021d3ff4")

	// Search query derivation defaults
	viper.SetDefault("search.query_strategy", QueryStrategyClothingType)
	viper.SetDefault("search.default_query", "женская одежда мода купить")
	viper.SetDefault("search.label_model", "pharmapsychotic/clip-interrogator:8151e1c9f47e696fa316146a2e35812ccf79cfc9eba05b11c7f450155102af70")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			SearchPerMin: viper.GetInt("ratelimit.search_per_min"),
			TryonPerMin:  viper.GetInt("ratelimit.tryon_per_min"),
		},
		Storage: StorageConfig{
			Endpoint:        viper.GetString("storage.endpoint"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			BucketName:      viper.GetString("storage.bucket_name"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
		Database: DatabaseConfig{
			URL: viper.GetString("database.url"),
		},
		GoogleSearch: GoogleSearchConfig{
			APIKey:   viper.GetString("google_search.api_key"),
			EngineID: viper.GetString("google_search.engine_id"),
			BaseURL:  viper.GetString("google_search.base_url"),
		},
		Replicate: ReplicateConfig{
			APIToken:   viper.GetString("replicate.api_token"),
			BaseURL:    viper.GetString("replicate.base_url"),
			TryonModel: viper.GetString("replicate.tryon_model"),
		},
		Search: SearchConfig{
			QueryStrategy: viper.GetString("search.query_strategy"),
			DefaultQuery:  viper.GetString("search.default_query"),
			LabelModel:    viper.GetString("search.label_model"),
		},
	}

	return cfg, nil
}
