package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "photostream"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Uploads      UploadsConfig
	Feed         FeedConfig
	PubSub       PubSubConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHOTOSTREAM_APP_ENV" default:"dev"`
	Port         string `envconfig:"PHOTOSTREAM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PHOTOSTREAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHOTOSTREAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHOTOSTREAM_DB_DSN" required:"true"`
	Driver string `envconfig:"PHOTOSTREAM_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"PHOTOSTREAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHOTOSTREAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHOTOSTREAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHOTOSTREAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHOTOSTREAM_REDIS_URL"`
	Address      string        `envconfig:"PHOTOSTREAM_REDIS_ADDR"`
	Password     string        `envconfig:"PHOTOSTREAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHOTOSTREAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHOTOSTREAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHOTOSTREAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHOTOSTREAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHOTOSTREAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHOTOSTREAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PHOTOSTREAM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PHOTOSTREAM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PHOTOSTREAM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"PHOTOSTREAM_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"PHOTOSTREAM_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"PHOTOSTREAM_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type UploadsConfig struct {
	MaxUploadMB      int           `envconfig:"PHOTOSTREAM_MAX_UPLOAD_MB" default:"20"`
	PendingRetention time.Duration `envconfig:"PHOTOSTREAM_UPLOAD_PENDING_RETENTION" default:"48h"`
}

// MaxUploadBytes returns the configured upload ceiling in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) * 1024 * 1024
}

type FeedConfig struct {
	CacheTTL    time.Duration `envconfig:"PHOTOSTREAM_FEED_CACHE_TTL" default:"30s"`
	DefaultPage int           `envconfig:"PHOTOSTREAM_FEED_DEFAULT_PAGE_SIZE" default:"20"`
	MaxPage     int           `envconfig:"PHOTOSTREAM_FEED_MAX_PAGE_SIZE" default:"100"`
}

type PubSubConfig struct {
	BlobEventsSubscription string `envconfig:"PHOTOSTREAM_PUBSUB_BLOB_EVENTS_SUBSCRIPTION"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PHOTOSTREAM_CRON_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PHOTOSTREAM_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	ExtraOrigins []string `envconfig:"PHOTOSTREAM_CORS_EXTRA_ORIGINS"`
}
