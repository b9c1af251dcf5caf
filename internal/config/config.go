package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		Env            string   `yaml:"env"`
		RequestTimeout int      `yaml:"request_timeout"` // seconds
		CORSOrigins    []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Driver       string `yaml:"driver"` // postgres, mysql
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	// FirstAdmin is seeded on startup when both fields are set.
	FirstAdmin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"first_admin"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		TemplatesDir string `yaml:"templates_dir"`
	} `yaml:"email"`

	Storage struct {
		Type         string `yaml:"type"` // local, s3, cloudflare_r2
		BasePath     string `yaml:"base_path"`
		BaseURL      string `yaml:"base_url"`
		Bucket       string `yaml:"bucket"`
		Region       string `yaml:"region"`
		AccessKey    string `yaml:"access_key"`
		SecretKey    string `yaml:"secret_key"`
		Endpoint     string `yaml:"endpoint"`
		SignedURLTTL int    `yaml:"signed_url_ttl"` // seconds
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64               `yaml:"max_size"`
		AllowedTypes map[string][]string `yaml:"allowed_types"` // content kind -> MIME types
		ImageQuality int                 `yaml:"image_quality"`
	} `yaml:"upload"`

	Payments PaymentsConfig `yaml:"payments"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Workers struct {
		ExpirySweepEnabled  bool   `yaml:"expiry_sweep_enabled"`
		ExpirySweepInterval int    `yaml:"expiry_sweep_interval"` // minutes
		ExpiringWithinDays  int    `yaml:"expiring_within_days"`
		ExpiringCron        string `yaml:"expiring_cron"`
		ExpiryCron          string `yaml:"expiry_cron"`
	} `yaml:"workers"`
}

type PaymentsConfig struct {
	Provider           string  `yaml:"provider"` // ledger, stripe
	StripeSecretKey    string  `yaml:"stripe_secret_key"`
	PlatformFeePercent float64 `yaml:"platform_fee_percent"`
}

var AppConfig *Config

// LoadConfig reads CONFIG_PATH (default config/config.yaml) when it exists,
// then applies environment overrides. A .env file is loaded first if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if f, err := os.Open(configPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return cfg, nil
}

// Default returns the values used for anything the file and env leave unset.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.Env = "development"
	cfg.Server.RequestTimeout = 15
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.Database.Driver = "postgres"
	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5
	cfg.Database.AutoMigrate = true

	cfg.JWT.TTL = 60 * 24

	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "CreatorHub"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/files"
	cfg.Storage.SignedURLTTL = 15 * 60

	cfg.Upload.MaxSize = 200 * 1024 * 1024
	cfg.Upload.AllowedTypes = map[string][]string{
		"article": {"image/jpeg", "image/png", "image/webp"},
		"video":   {"video/mp4", "video/quicktime", "video/webm", "image/jpeg", "image/png"},
		"audio":   {"audio/mpeg", "audio/ogg", "audio/wav", "audio/mp4", "image/jpeg", "image/png"},
	}
	cfg.Upload.ImageQuality = 85

	cfg.Payments.Provider = "ledger"

	cfg.Workers.ExpirySweepInterval = 60
	cfg.Workers.ExpiringWithinDays = 3
	cfg.Workers.ExpiringCron = "0 0 10 * * *"
	cfg.Workers.ExpiryCron = "0 0 2 * * *"
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}

	setString(&cfg.FirstAdmin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdmin.Password, "FIRST_ADMIN_PASSWORD")

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setBool(&cfg.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.TTL, "JWT_TTL")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "SMTP_FROM")
	setString(&cfg.Email.TemplatesDir, "EMAIL_TEMPLATES_DIR")

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")

	setString(&cfg.Payments.Provider, "PAYMENTS_PROVIDER")
	setString(&cfg.Payments.StripeSecretKey, "STRIPE_SECRET_KEY")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setBool(&cfg.Workers.ExpirySweepEnabled, "EXPIRY_SWEEP_ENABLED")
}

func (c *Config) Validate() error {
	var problems []string
	if c.Database.DSN == "" {
		problems = append(problems, "database.url is required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		problems = append(problems, fmt.Sprintf("unsupported database.driver %q", c.Database.Driver))
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Payments.Provider {
	case "ledger":
	case "stripe":
		if c.Payments.StripeSecretKey == "" {
			problems = append(problems, "payments.stripe_secret_key is required for the stripe provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported payments.provider %q", c.Payments.Provider))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

func (c *Config) SignedURLTTL() time.Duration {
	return time.Duration(c.Storage.SignedURLTTL) * time.Second
}

func (c *Config) ExpirySweepInterval() time.Duration {
	return time.Duration(c.Workers.ExpirySweepInterval) * time.Minute
}

// GetConfig loads the config on first use and exits the process when it is invalid.
func GetConfig() *Config {
	if AppConfig == nil {
		cfg, err := LoadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		AppConfig = cfg
	}
	return AppConfig
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
