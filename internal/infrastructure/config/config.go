package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Lazada    LazadaConfig
	Product   ProductConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Scheduler SchedulerConfig
	Order     OrderConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	// MigrateOnStart applies pending schema migrations when the server boots
	MigrateOnStart bool
}

// RedisConfig holds Redis connection settings. Redis backs the shared image URI cache tier.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	WebhookMaxBody  int64
	ShutdownTimeout time.Duration
	TrustedProxies  []string

	// Operator endpoints share one token bucket; zero disables limiting
	OperatorRequestsPerSecond float64
	OperatorBurst             int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	// Database tracing options
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// LazadaConfig holds the marketplace endpoint settings. Shop credentials live in the database.
type LazadaConfig struct {
	APIBaseURL        string
	AuthBaseURL       string
	LanguageCode      string
	TimeoutSeconds    int
	RequestsPerSecond float64
	Burst             int
	// DefaultShop is used by operator endpoints and tasks that do not name a shop
	DefaultShop string
}

// ProductConfig holds the fallbacks used when building product payloads
type ProductConfig struct {
	// FallbackCategoryID is the last step of category resolution
	FallbackCategoryID string
	// DefaultImageURL replaces images that fail to upload
	DefaultImageURL    string
	DefaultBrand       string
	DefaultDescription string
	DefaultPrice       int64
	DefaultQuantity    int
	DefaultPackageSize int
	MaxExtraImages     int
}

// StorageConfig holds the internal file store settings used as an image source
type StorageConfig struct {
	S3Enabled       bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// FilesPrefix marks relative references served by the internal store
	FilesPrefix     string
	DownloadTimeout time.Duration
	MaxImageBytes   int64
}

// QueueConfig holds the in-process job queue settings
type QueueConfig struct {
	ShortWorkers   int
	DefaultWorkers int
	LongWorkers    int
	BufferSize     int
}

// SchedulerConfig holds scheduled task settings
type SchedulerConfig struct {
	Enabled              bool
	TokenRefreshSchedule string
	OrderPollEnabled     bool
	OrderPollSchedule    string
}

// OrderConfig holds order ingestion settings
type OrderConfig struct {
	// PollLookback is how far back the order poller looks
	PollLookback time.Duration
	// DefaultWarehouse is used when the shop credential names none
	DefaultWarehouse string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ERP_ prefix (e.g., ERP_LAZADA_API_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			WebhookMaxBody:  v.GetInt64("http.webhook_max_body"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),

			OperatorRequestsPerSecond: v.GetFloat64("http.operator_requests_per_second"),
			OperatorBurst:             v.GetInt("http.operator_burst"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Lazada: LazadaConfig{
			APIBaseURL:        v.GetString("lazada.api_base_url"),
			AuthBaseURL:       v.GetString("lazada.auth_base_url"),
			LanguageCode:      v.GetString("lazada.language_code"),
			TimeoutSeconds:    v.GetInt("lazada.timeout_seconds"),
			RequestsPerSecond: v.GetFloat64("lazada.requests_per_second"),
			Burst:             v.GetInt("lazada.burst"),
			DefaultShop:       v.GetString("lazada.default_shop"),
		},
		Product: ProductConfig{
			FallbackCategoryID: v.GetString("product.fallback_category_id"),
			DefaultImageURL:    v.GetString("product.default_image_url"),
			DefaultBrand:       v.GetString("product.default_brand"),
			DefaultDescription: v.GetString("product.default_description"),
			DefaultPrice:       v.GetInt64("product.default_price"),
			DefaultQuantity:    v.GetInt("product.default_quantity"),
			DefaultPackageSize: v.GetInt("product.default_package_size"),
			MaxExtraImages:     v.GetInt("product.max_extra_images"),
		},
		Storage: StorageConfig{
			S3Enabled:       v.GetBool("storage.s3_enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			FilesPrefix:     v.GetString("storage.files_prefix"),
			DownloadTimeout: v.GetDuration("storage.download_timeout"),
			MaxImageBytes:   v.GetInt64("storage.max_image_bytes"),
		},
		Queue: QueueConfig{
			ShortWorkers:   v.GetInt("queue.short_workers"),
			DefaultWorkers: v.GetInt("queue.default_workers"),
			LongWorkers:    v.GetInt("queue.long_workers"),
			BufferSize:     v.GetInt("queue.buffer_size"),
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			TokenRefreshSchedule: v.GetString("scheduler.token_refresh_schedule"),
			OrderPollEnabled:     v.GetBool("scheduler.order_poll_enabled"),
			OrderPollSchedule:    v.GetString("scheduler.order_poll_schedule"),
		},
		Order: OrderConfig{
			PollLookback:     v.GetDuration("order.poll_lookback"),
			DefaultWarehouse: v.GetString("order.default_warehouse"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-marketplace"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "erp"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second // inline publishes wait for the marketplace
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	if cfg.HTTP.WebhookMaxBody == 0 {
		cfg.HTTP.WebhookMaxBody = 64 << 10
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.OperatorRequestsPerSecond > 0 && cfg.HTTP.OperatorBurst <= 0 {
		cfg.HTTP.OperatorBurst = int(cfg.HTTP.OperatorRequestsPerSecond) + 1
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "erp-marketplace"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Lazada.APIBaseURL == "" {
		cfg.Lazada.APIBaseURL = "https://api.lazada.vn/rest"
	}
	if cfg.Lazada.AuthBaseURL == "" {
		cfg.Lazada.AuthBaseURL = "https://auth.lazada.com/rest"
	}
	if cfg.Lazada.LanguageCode == "" {
		cfg.Lazada.LanguageCode = "en_US"
	}
	if cfg.Lazada.TimeoutSeconds == 0 {
		cfg.Lazada.TimeoutSeconds = 15
	}
	if cfg.Lazada.RequestsPerSecond == 0 {
		cfg.Lazada.RequestsPerSecond = 10
	}
	if cfg.Lazada.Burst == 0 {
		cfg.Lazada.Burst = 10
	}
	if cfg.Lazada.DefaultShop == "" {
		cfg.Lazada.DefaultShop = "Lazada"
	}
	if cfg.Product.DefaultBrand == "" {
		cfg.Product.DefaultBrand = "No Brand"
	}
	if cfg.Product.DefaultDescription == "" {
		cfg.Product.DefaultDescription = "Product description is being updated."
	}
	if cfg.Product.DefaultPrice == 0 {
		cfg.Product.DefaultPrice = 300000
	}
	if cfg.Product.DefaultQuantity == 0 {
		cfg.Product.DefaultQuantity = 10
	}
	if cfg.Product.DefaultPackageSize == 0 {
		cfg.Product.DefaultPackageSize = 10
	}
	if cfg.Product.MaxExtraImages == 0 {
		cfg.Product.MaxExtraImages = 9
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.FilesPrefix == "" {
		cfg.Storage.FilesPrefix = "/files/"
	}
	if cfg.Storage.DownloadTimeout == 0 {
		cfg.Storage.DownloadTimeout = 30 * time.Second
	}
	if cfg.Storage.MaxImageBytes == 0 {
		cfg.Storage.MaxImageBytes = 3 << 20
	}
	if cfg.Queue.ShortWorkers == 0 {
		cfg.Queue.ShortWorkers = 4
	}
	if cfg.Queue.DefaultWorkers == 0 {
		cfg.Queue.DefaultWorkers = 2
	}
	if cfg.Queue.LongWorkers == 0 {
		cfg.Queue.LongWorkers = 1
	}
	if cfg.Queue.BufferSize == 0 {
		cfg.Queue.BufferSize = 256
	}
	if cfg.Scheduler.TokenRefreshSchedule == "" {
		cfg.Scheduler.TokenRefreshSchedule = "0 0 2 * * *"
	}
	if cfg.Scheduler.OrderPollSchedule == "" {
		cfg.Scheduler.OrderPollSchedule = "0 */15 * * * *"
	}
	if cfg.Order.PollLookback == 0 {
		cfg.Order.PollLookback = 24 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Lazada.RequestsPerSecond < 0 {
		return fmt.Errorf("lazada.requests_per_second cannot be negative")
	}
	if c.Product.MaxExtraImages < 0 {
		return fmt.Errorf("product.max_extra_images cannot be negative")
	}
	if c.Storage.S3Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.s3_enabled is true")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !strings.HasPrefix(c.Lazada.APIBaseURL, "https://") {
			return fmt.Errorf("lazada.api_base_url must use https in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
