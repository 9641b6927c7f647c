package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Media backends understood by the server.
const (
	MediaBackendGridFS     = "gridfs"
	MediaBackendCloudinary = "cloudinary"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	AccessTokenMinutes    int    `mapstructure:"ACCESS_TOKEN_MINUTES"`
	CookieSecure          bool   `mapstructure:"COOKIE_SECURE"`
	CORSAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`

	MediaBackend           string `mapstructure:"MEDIA_BACKEND"`
	PublicBaseURL          string `mapstructure:"PUBLIC_BASE_URL"`
	CloudinaryCloudName    string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey       string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret    string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryImageFolder  string `mapstructure:"CLOUDINARY_IMAGE_FOLDER"`
	CloudinaryAudioFolder  string `mapstructure:"CLOUDINARY_AUDIO_FOLDER"`
	MediaRatePerSec        int    `mapstructure:"MEDIA_RATE_PER_SEC"`
	MediaBurst             int    `mapstructure:"MEDIA_BURST"`
	MediaTimeoutSec        int    `mapstructure:"MEDIA_TIMEOUT_SEC"`
	MediaDeleteConcurrency int    `mapstructure:"MEDIA_DELETE_CONCURRENCY"`
	MediaUploadRatePerMin  int    `mapstructure:"MEDIA_UPLOAD_RATE_PER_MIN"`
	MediaMaxImageBytes     int64  `mapstructure:"MEDIA_MAX_IMAGE_BYTES"`
	MediaMaxAudioBytes     int64  `mapstructure:"MEDIA_MAX_AUDIO_BYTES"`
	MediaMaxAudioSeconds   int    `mapstructure:"MEDIA_MAX_AUDIO_SECONDS"`

	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// A missing .env file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.MediaBackend = strings.ToLower(strings.TrimSpace(cfg.MediaBackend))
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "notekeeper")
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 600)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)

	v.SetDefault("MEDIA_BACKEND", MediaBackendGridFS)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_IMAGE_FOLDER", "Notes-app-images")
	v.SetDefault("CLOUDINARY_AUDIO_FOLDER", "Notes-app-audio")
	v.SetDefault("MEDIA_RATE_PER_SEC", 10)
	v.SetDefault("MEDIA_BURST", 10)
	v.SetDefault("MEDIA_TIMEOUT_SEC", 30)
	v.SetDefault("MEDIA_DELETE_CONCURRENCY", 4)
	v.SetDefault("MEDIA_UPLOAD_RATE_PER_MIN", 30)
	v.SetDefault("MEDIA_MAX_IMAGE_BYTES", 5<<20)
	v.SetDefault("MEDIA_MAX_AUDIO_BYTES", 10<<20)
	v.SetDefault("MEDIA_MAX_AUDIO_SECONDS", 60)

	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 {
		return errors.New("APP_PORT must be greater than 0")
	}
	if c.BcryptCost < 10 || c.BcryptCost > 16 {
		return errors.New("BCRYPT_COST must be between 10 and 16")
	}
	if c.SignInRatePerMin < 1 {
		return errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	}
	if c.LogLevel == "" {
		return errors.New("LOG_LEVEL cannot be empty")
	}
	if c.LogFormat == "" {
		return errors.New("LOG_FORMAT cannot be empty")
	}
	if c.MongoURI == "" {
		return errors.New("MONGO_URI cannot be empty")
	}
	if c.MongoDBName == "" {
		return errors.New("MONGO_DB_NAME cannot be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	if c.JWTAlgorithm != "HS256" {
		return errors.New("JWT_ALGORITHM must be HS256")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HS256")
	}
	if c.AccessTokenMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_MINUTES must be greater than 0")
	}
	return c.validateMedia()
}

func (c Config) validateMedia() error {
	switch c.MediaBackend {
	case MediaBackendGridFS:
		if c.PublicBaseURL == "" {
			return errors.New("PUBLIC_BASE_URL cannot be empty when MEDIA_BACKEND=gridfs")
		}
	case MediaBackendCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when MEDIA_BACKEND=cloudinary")
		}
	default:
		return errors.New("MEDIA_BACKEND must be either gridfs or cloudinary")
	}
	if c.MediaRatePerSec <= 0 || c.MediaBurst <= 0 {
		return errors.New("MEDIA_RATE_PER_SEC and MEDIA_BURST must be greater than 0")
	}
	if c.MediaTimeoutSec <= 0 {
		return errors.New("MEDIA_TIMEOUT_SEC must be greater than 0")
	}
	if c.MediaDeleteConcurrency <= 0 {
		return errors.New("MEDIA_DELETE_CONCURRENCY must be greater than 0")
	}
	if c.MediaMaxImageBytes <= 0 || c.MediaMaxAudioBytes <= 0 {
		return errors.New("MEDIA_MAX_IMAGE_BYTES and MEDIA_MAX_AUDIO_BYTES must be greater than 0")
	}
	if c.MediaMaxAudioSeconds <= 0 {
		return errors.New("MEDIA_MAX_AUDIO_SECONDS must be greater than 0")
	}
	return nil
}
