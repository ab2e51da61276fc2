package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

type RedisOptions struct {
	Addr             string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required,hostname_port"`
	QueueKey         string `env:"REDIS_QUEUE_KEY" envDefault:"imports:queue" validate:"required"`
	ProcessingKey    string `env:"REDIS_PROCESSING_KEY" envDefault:"imports:processing" validate:"required"`
	ProcessingMapKey string `env:"REDIS_PROCESSING_MAP_KEY"`
	StatusPrefix     string `env:"REDIS_STATUS_PREFIX" envDefault:"imports:status:" validate:"required"`
}

// MapKey is the hash recording which processing list holds a claimed job.
func (r RedisOptions) MapKey() string {
	if r.ProcessingMapKey != "" {
		return r.ProcessingMapKey
	}
	return r.ProcessingKey + ":map"
}

type UploadOptions struct {
	Backend  string `env:"UPLOAD_BACKEND" envDefault:"local" validate:"oneof=local s3"`
	Dir      string `env:"UPLOAD_DIR" envDefault:"uploads" validate:"required_if=Backend local"`
	Bucket   string `env:"S3_BUCKET" validate:"required_if=Backend s3"`
	Prefix   string `env:"S3_PREFIX" envDefault:"imports/"`
	Region   string `env:"AWS_REGION" envDefault:"eu-west-3"`
	Endpoint string `env:"AWS_ENDPOINT" validate:"omitempty,url"`
	MaxSize  int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432" validate:"gt=0"`
}

type StatusOptions struct {
	NATSURL    string        `env:"NATS_URL" validate:"omitempty,url"`
	TTL        time.Duration `env:"STATUS_TTL" envDefault:"24h" validate:"gt=0"`
	StaleAfter time.Duration `env:"STATUS_STALE_AFTER" envDefault:"2m"`
}

type ReaperOptions struct {
	Schedule  string        `env:"REAPER_SCHEDULE" envDefault:"@every 30s" validate:"required"`
	OlderThan time.Duration `env:"REAPER_OLDER_THAN" envDefault:"10m" validate:"gt=0"`
	Batch     int64         `env:"REAPER_BATCH" envDefault:"100" validate:"gt=0"`
}

type Config struct {
	Redis  RedisOptions
	Upload UploadOptions
	Status StatusOptions
	Reaper ReaperOptions

	AppEnv          string `env:"APP_ENV" envDefault:"development" validate:"oneof=production development test"`
	PostgresDSN     string `env:"POSTGRES_DSN" validate:"required"`
	Workers         int    `env:"WORKERS" envDefault:"4" validate:"min=1,max=64"`
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
	MetricsAddr     string `env:"METRICS_ADDR" envDefault:":9090" validate:"required"`
	MetricsPath     string `env:"METRICS_PATH" envDefault:"/metrics" validate:"startswith=/"`
	RequesterHeader string `env:"REQUESTER_HEADER" envDefault:"X-User-ID" validate:"required"`
}

// Load reads the given .env files when they exist, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			errs := make([]error, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cron.ParseStandard(c.Reaper.Schedule); err != nil {
		return fmt.Errorf("invalid configuration: REAPER_SCHEDULE: %w", err)
	}
	return nil
}
