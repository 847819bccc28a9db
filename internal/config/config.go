package config

import (
	"time"

	"github.com/spf13/viper"
)

// Every process (api, audit-worker, email-worker, seed) reads the same set of
// environment variables. Defaults match the docker-compose / LocalStack setup.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBMaxConns int    `mapstructure:"DB_MAX_CONNS"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	DBQueryTimeout   time.Duration `mapstructure:"DB_QUERY_TIMEOUT"`
	HTTPReadTimeout  time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	HTTPWriteTimeout time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
	HTTPIdleTimeout  time.Duration `mapstructure:"HTTP_IDLE_TIMEOUT"`

	AWSRegion        string `mapstructure:"AWS_REGION"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	AuditSQSQueueURL string `mapstructure:"AUDIT_SQS_QUEUE_URL"`
	EmailSQSQueueURL string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	EmailSender      string `mapstructure:"EMAIL_SENDER"`

	RedisURL     string        `mapstructure:"REDIS_URL"`
	CacheBackend string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`

	Timezone        string        `mapstructure:"APP_TIMEZONE"`
	AdvisoryTimeout time.Duration `mapstructure:"ADVISORY_TIMEOUT"`

	PhotoBucket   string        `mapstructure:"PHOTO_BUCKET"`
	PhotoBaseURL  string        `mapstructure:"PHOTO_BASE_URL"`
	MaxPhotoSize  int64         `mapstructure:"MAX_PHOTO_SIZE"`
	UploadTimeout time.Duration `mapstructure:"UPLOAD_TIMEOUT"`

	EmployeeListMaxLimit int `mapstructure:"EMPLOYEE_LIST_MAX_LIMIT"`

	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	FrontendURL  string `mapstructure:"FRONTEND_URL"`

	SeedAdminEmail    string `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `mapstructure:"SEED_ADMIN_PASSWORD"`

	AuditMaxReceives  int `mapstructure:"AUDIT_MAX_RECEIVES"`
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
}

// LoadConfig reads configuration from environment variables, falling back to defaults.
func LoadConfig() (config Config, err error) {
	v := viper.New()

	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_LOCAL_DEV", false)

	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	// Photo uploads are read and forwarded to S3 inside one request.
	v.SetDefault("HTTP_READ_TIMEOUT", "60s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "90s")
	v.SetDefault("HTTP_IDLE_TIMEOUT", "120s")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("AUDIT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/employee-audit")
	v.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	v.SetDefault("EMAIL_SENDER", "no-reply@attendance-service.com")

	v.SetDefault("REDIS_URL", "redis://redis:6379/0")
	v.SetDefault("CACHE_BACKEND", "redis")
	v.SetDefault("CACHE_TTL", "3600s")

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_EXPIRES_IN", "24h")

	v.SetDefault("APP_TIMEZONE", "Local")
	v.SetDefault("ADVISORY_TIMEOUT", "2s")

	v.SetDefault("PHOTO_BUCKET", "employee-photos")
	v.SetDefault("PHOTO_BASE_URL", "")
	v.SetDefault("MAX_PHOTO_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_TIMEOUT", "30s")

	v.SetDefault("EMPLOYEE_LIST_MAX_LIMIT", 100)

	v.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("SEED_ADMIN_EMAIL", "admin@attendance.local")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin123")

	v.SetDefault("AUDIT_MAX_RECEIVES", 5)
	v.SetDefault("WORKER_CONCURRENCY", 10)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	return
}

// Location resolves APP_TIMEZONE. Every day boundary in the service is
// computed in this zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
