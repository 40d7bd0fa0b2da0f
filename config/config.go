package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Persistence. STORE_BACKEND selects "mongo" or "firestore".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Firebase and auth.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	AuthMode                string `mapstructure:"AUTH_MODE"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`

	// Repository caches and connectivity.
	CacheCapacity     int           `mapstructure:"CACHE_CAPACITY"`
	EnrichConcurrency int           `mapstructure:"ENRICH_CONCURRENCY"`
	HealthInterval    time.Duration `mapstructure:"HEALTH_INTERVAL"`
	ForceOffline      bool          `mapstructure:"FORCE_OFFLINE"`

	// Search.
	ElasticsearchURL   string `mapstructure:"ELASTICSEARCH_URL"`
	ElasticsearchIndex string `mapstructure:"ELASTICSEARCH_INDEX"`

	// Cloudinary mirror for profile images.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	ProfileImageDir    string `mapstructure:"PROFILE_IMAGE_DIR"`
	ProfileImageMaxDim int    `mapstructure:"PROFILE_IMAGE_MAX_DIM"`

	// Cron spec for the recommendation sweep.
	RecommendationCron string `mapstructure:"RECOMMENDATION_CRON"`
}

var AppConfig Config

// setDefaults registers a default for every key so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("STORE_BACKEND", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "sportevents")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("AUTH_MODE", "firebase")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CACHE_CAPACITY", 512)
	v.SetDefault("ENRICH_CONCURRENCY", 16)
	v.SetDefault("HEALTH_INTERVAL", 15*time.Second)
	v.SetDefault("FORCE_OFFLINE", false)
	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("ELASTICSEARCH_INDEX", "events")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("PROFILE_IMAGE_DIR", "./data/profile_images")
	v.SetDefault("PROFILE_IMAGE_MAX_DIM", 512)
	v.SetDefault("RECOMMENDATION_CRON", "@every 24h")
}

// Load reads configuration into a Config from the given viper instance.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.AuthMode == "jwt" && cfg.JWTSecret == "" {
		return Config{}, errors.New("AUTH_MODE=jwt requires JWT_SECRET")
	}
	return cfg, nil
}

func LoadConfig() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
