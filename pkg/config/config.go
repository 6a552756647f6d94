package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "WARDROBE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Uploads       UploadsConfig
	Wolfram       WolframConfig
	Gemini        GeminiConfig
	Weather       WeatherConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WARDROBE_APP_ENV" default:"dev"`
	Port         string `envconfig:"WARDROBE_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"WARDROBE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WARDROBE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"WARDROBE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"WARDROBE_DB_DSN"`
	Driver string `envconfig:"WARDROBE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"WARDROBE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WARDROBE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WARDROBE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WARDROBE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WARDROBE_REDIS_URL"`
	Address      string        `envconfig:"WARDROBE_REDIS_ADDR"`
	Password     string        `envconfig:"WARDROBE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WARDROBE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WARDROBE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WARDROBE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WARDROBE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WARDROBE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WARDROBE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WARDROBE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WARDROBE_JWT_ISSUER" default:"wardrobe-backend"`
	ExpirationMinutes int    `envconfig:"WARDROBE_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"WARDROBE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"WARDROBE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"WARDROBE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"WARDROBE_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"WARDROBE_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"WARDROBE_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type UploadsConfig struct {
	Dir          string `envconfig:"WARDROBE_UPLOADS_DIR" default:"uploads"`
	MaxSizeBytes int64  `envconfig:"WARDROBE_MAX_UPLOAD_SIZE_BYTES" default:"5242880"`
}

// WolframConfig points at the three image-analysis endpoints. Background
// removal can be switched off without disabling the rest of the pipeline.
type WolframConfig struct {
	IdentifyEndpoint        string        `envconfig:"WARDROBE_WOLFRAM_IDENTIFY_API" default:"https://www.wolframcloud.com/obj/shyammm53/ImageIdentifyAPI"`
	ColorEndpoint           string        `envconfig:"WARDROBE_WOLFRAM_COLOR_API" default:"https://www.wolframcloud.com/obj/shyammm53/clothing-color-name"`
	BackgroundEndpoint      string        `envconfig:"WARDROBE_WOLFRAM_BG_REMOVAL_API" default:"https://www.wolframcloud.com/obj/shyammm53/clothing-background-removal"`
	EnableBackgroundRemoval bool          `envconfig:"WARDROBE_WOLFRAM_ENABLE_BACKGROUND_REMOVAL" default:"true"`
	Timeout                 time.Duration `envconfig:"WARDROBE_WOLFRAM_TIMEOUT" default:"60s"`
}

type GeminiConfig struct {
	APIKey  string        `envconfig:"WARDROBE_GEMINI_API_KEY"`
	BaseURL string        `envconfig:"WARDROBE_GEMINI_API_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Model   string        `envconfig:"WARDROBE_GEMINI_MODEL"`
	Timeout time.Duration `envconfig:"WARDROBE_GEMINI_TIMEOUT" default:"45s"`
}

type WeatherConfig struct {
	OpenWeatherAPIKey string        `envconfig:"WARDROBE_OPENWEATHER_API_KEY"`
	CacheTTL          time.Duration `envconfig:"WARDROBE_WEATHER_CACHE_TTL" default:"10m"`
	DefaultLat        float64       `envconfig:"WARDROBE_DEFAULT_WEATHER_LAT" default:"40.7128"`
	DefaultLon        float64       `envconfig:"WARDROBE_DEFAULT_WEATHER_LON" default:"-74.0060"`
	DefaultCity       string        `envconfig:"WARDROBE_DEFAULT_WEATHER_CITY" default:"New York"`
	DefaultRegion     string        `envconfig:"WARDROBE_DEFAULT_WEATHER_REGION" default:"NY"`
	DefaultCountry    string        `envconfig:"WARDROBE_DEFAULT_WEATHER_COUNTRY" default:"US"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WARDROBE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WARDROBE_AUTO_MIGRATE" default:"false"`
}
