package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	// Database
	DBEngine         string
	DatabaseURL      string
	DBConnectTimeout time.Duration
	SeedOnStart      bool

	JWTSecret string

	// Logging
	LogFormat string
	LogLevel  string

	RateLimitPerMinute int
	RateLimitBurst     int
	CORSAllowedOrigins []string

	// Scheduled publishing
	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// EmailEnabled reports whether notification emails can be sent.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("db_engine", "mysql")
	v.SetDefault("database_url", "user:password@tcp(localhost:3306)/quillpost?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("db_connect_timeout", time.Minute)
	v.SetDefault("seed_on_start", false)
	v.SetDefault("jwt_secret", "your-secret-key")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_interval", time.Minute)
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 2525)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("from_email", "noreply@quillpost.dev")
	v.SetDefault("from_name", "Quillpost")
}

// New builds a viper instance reading QUILLPOST_* environment variables and an
// optional config.yaml. A .env file in the working directory is loaded first.
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/quillpost")
	v.AddConfigPath("$HOME/.quillpost")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUILLPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	_ = v.ReadInConfig()

	return v
}

func Load() *Config {
	return FromViper(New())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:    v.GetString("port"),
		GinMode: v.GetString("gin_mode"),

		DBEngine:         v.GetString("db_engine"),
		DatabaseURL:      v.GetString("database_url"),
		DBConnectTimeout: v.GetDuration("db_connect_timeout"),
		SeedOnStart:      v.GetBool("seed_on_start"),

		JWTSecret: v.GetString("jwt_secret"),

		LogFormat: v.GetString("log_format"),
		LogLevel:  v.GetString("log_level"),

		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		RateLimitBurst:     v.GetInt("rate_limit_burst"),
		CORSAllowedOrigins: v.GetStringSlice("cors_allowed_origins"),

		SchedulerEnabled:  v.GetBool("scheduler_enabled"),
		SchedulerInterval: v.GetDuration("scheduler_interval"),

		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPUsername: v.GetString("smtp_username"),
		SMTPPassword: v.GetString("smtp_password"),
		FromEmail:    v.GetString("from_email"),
		FromName:     v.GetString("from_name"),
	}
}
