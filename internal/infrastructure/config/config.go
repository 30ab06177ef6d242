package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

const envProduction = "production"

type Config struct {
	Port      string        `env:"PORT,       default=5000"`
	Host      string        `env:"HOST,       default=localhost"`
	Env       string        `env:"ENV,        default=development"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`

	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:3000,http://localhost:5173"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Notify   NotifyConfig
	Reminder ReminderConfig
	Admin    AdminConfig
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=backoffice"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=5s"`
	SocketTimeout  time.Duration `env:"MONGO_SOCKET_TIMEOUT,  default=45s"`
	MaxPoolSize    uint64        `env:"MONGO_MAX_POOL_SIZE,   default=10"`
}

// RedisConfig is optional: an empty address disables notification dedup.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type StorageConfig struct {
	Strategy       string `env:"STORAGE_STRATEGY, default=disk"`
	UploadDir      string `env:"UPLOAD_DIR,       default=uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=10485760"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `env:"CLOUDINARY_FOLDER, default=backoffice"`
}

// NotifyConfig configures the messaging gateway. An empty URL logs
// notifications instead of sending them.
type NotifyConfig struct {
	APIURL        string  `env:"NOTIFY_API_URL"`
	APIKey        string  `env:"NOTIFY_API_KEY"`
	Workers       int     `env:"NOTIFY_WORKERS,         default=4"`
	RatePerSecond float64 `env:"NOTIFY_RATE_PER_SECOND, default=5"`
}

type ReminderConfig struct {
	Schedule string        `env:"REMINDER_SCHEDULE, default=0 0 8 * * *"`
	Window   time.Duration `env:"REMINDER_WINDOW,   default=24h"`
}

// AdminConfig seeds the first administrator when ADMIN_EMAIL is set.
type AdminConfig struct {
	Name     string `env:"ADMIN_NAME, default=Administrator"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	strategy := domain.StorageStrategy(strings.ToLower(strings.TrimSpace(c.Storage.Strategy)))
	if !strategy.Valid() {
		return fmt.Errorf("STORAGE_STRATEGY must be one of disk, memory, cloudinary (got %q)", c.Storage.Strategy)
	}
	c.Storage.Strategy = string(strategy)
	if strategy == domain.StorageCloudinary && !c.Storage.CloudinaryConfigured() {
		return fmt.Errorf("STORAGE_STRATEGY=cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// ListenAddr binds every interface in production and HOST otherwise.
func (c *Config) ListenAddr() string {
	if c.IsProduction() {
		return ":" + c.Port
	}
	return net.JoinHostPort(c.Host, c.Port)
}

// StorageStrategy returns the validated active strategy.
func (c *Config) StorageStrategy() domain.StorageStrategy {
	return domain.StorageStrategy(c.Storage.Strategy)
}

func (s StorageConfig) CloudinaryConfigured() bool {
	return s.CloudinaryCloudName != "" && s.CloudinaryAPIKey != "" && s.CloudinaryAPISecret != ""
}
