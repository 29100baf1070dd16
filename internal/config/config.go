// backend-go/internal/config/config.go
package config

import (
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// ForecastConfig locates the model artifacts and sizes the worker pools.
type ForecastConfig struct {
	ModelPath        string
	ScalerPath       string
	InferenceWorkers int
	BatchWorkers     int
	HistoryDays      int
	DefaultDaysAhead int
}

// StorageConfig points at an S3-compatible bucket holding the artifacts.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	ModelKey  string
	ScalerKey string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 60)
	v.SetDefault("AI_MODEL_PATH", filepath.Join("ml_models", "inventory_lstm_model.json"))
	v.SetDefault("AI_SCALER_PATH", filepath.Join("ml_models", "data_scaler.json.gz"))
	v.SetDefault("FORECAST_INFERENCE_WORKERS", runtime.NumCPU())
	v.SetDefault("FORECAST_BATCH_WORKERS", 4)
	v.SetDefault("FORECAST_HISTORY_DAYS", 30)
	v.SetDefault("FORECAST_DEFAULT_DAYS_AHEAD", 7)
	v.SetDefault("ARTIFACT_STORE_ENDPOINT", "")
	v.SetDefault("ARTIFACT_STORE_ACCESS_KEY", "")
	v.SetDefault("ARTIFACT_STORE_SECRET_KEY", "")
	v.SetDefault("ARTIFACT_STORE_BUCKET", "")
	v.SetDefault("ARTIFACT_STORE_REGION", "us-east-1")
	v.SetDefault("ARTIFACT_STORE_USE_SSL", true)
	v.SetDefault("ARTIFACT_STORE_MODEL_KEY", "models/inventory_lstm_model.json")
	v.SetDefault("ARTIFACT_STORE_SCALER_KEY", "models/data_scaler.json.gz")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogFormat:      v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			ModelPath:        v.GetString("AI_MODEL_PATH"),
			ScalerPath:       v.GetString("AI_SCALER_PATH"),
			InferenceWorkers: v.GetInt("FORECAST_INFERENCE_WORKERS"),
			BatchWorkers:     v.GetInt("FORECAST_BATCH_WORKERS"),
			HistoryDays:      v.GetInt("FORECAST_HISTORY_DAYS"),
			DefaultDaysAhead: v.GetInt("FORECAST_DEFAULT_DAYS_AHEAD"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("ARTIFACT_STORE_ENDPOINT"),
			AccessKey: v.GetString("ARTIFACT_STORE_ACCESS_KEY"),
			SecretKey: v.GetString("ARTIFACT_STORE_SECRET_KEY"),
			Bucket:    v.GetString("ARTIFACT_STORE_BUCKET"),
			Region:    v.GetString("ARTIFACT_STORE_REGION"),
			UseSSL:    v.GetBool("ARTIFACT_STORE_USE_SSL"),
			ModelKey:  v.GetString("ARTIFACT_STORE_MODEL_KEY"),
			ScalerKey: v.GetString("ARTIFACT_STORE_SCALER_KEY"),
		},
	}
}
