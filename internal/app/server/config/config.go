package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config is the server configuration, loaded from environment
// variables with an optional .env file for local runs.
type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	Sync   synccfg
}

type db struct {
	DatabaseURI string
	Migrations  string
}

type server struct {
	RunAddress string
}

type logger struct {
	LogLevel string
}

type synccfg struct {
	// SiteName routes requests on multi-tenant deployments; empty for
	// single-tenant.
	SiteName        string
	Workers         int
	QueueSize       int
	RetryInterval   time.Duration
	CleanupInterval time.Duration
}

// MustLoad reads configuration from the environment. Missing optional
// values get defaults; the database URI is required downstream.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("run_address", ":8443")
	viper.SetDefault("migrations_path", "migrations")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("app_env", EnvProd)
	viper.SetDefault("sync_workers", 4)
	viper.SetDefault("sync_queue_size", 256)
	viper.SetDefault("sync_retry_interval", "5m")
	viper.SetDefault("sync_cleanup_interval", "24h")

	return &Config{
		Env: viper.GetString("app_env"),
		DB: db{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: server{
			RunAddress: viper.GetString("run_address"),
		},
		Logger: logger{
			LogLevel: viper.GetString("log_level"),
		},
		Sync: synccfg{
			SiteName:        viper.GetString("site_name"),
			Workers:         viper.GetInt("sync_workers"),
			QueueSize:       viper.GetInt("sync_queue_size"),
			RetryInterval:   viper.GetDuration("sync_retry_interval"),
			CleanupInterval: viper.GetDuration("sync_cleanup_interval"),
		},
	}
}
