package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Store struct {
	Driver string `mapstructure:"driver" json:"driver"`
	Dir    string `mapstructure:"dir"    json:"dir"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	Password       string `mapstructure:"password"        json:"-"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
	Enabled  bool   `mapstructure:"enabled"  json:"enabled"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

type Log struct {
	Path string `mapstructure:"path" json:"path"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Store       `mapstructure:"store"       json:"store"`
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Log         `mapstructure:"log"         json:"log"`
}

const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

var (
	once   sync.Once
	config *Config
)

// InitConfig loads the named config once per process and exits on failure.
func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger.Info().Msg("reading config")
		cfg, err := Load(filename, "./env", ".")
		if err != nil {
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("read config")
	})
	return config
}

func Load(filename string, paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.dir", "./database")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 1)
	v.SetDefault("cache.port", 6379)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("log.path", "/var/log/storefront.log")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed reading config=%s with error=%w", filename, err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed unmarshaling config=%s with error=%w", filename, err)
	}

	switch cfg.Store.Driver {
	case StoreDriverFile, StoreDriverMemory, StoreDriverPostgres:
	default:
		return Config{}, fmt.Errorf("unknown store driver=%s", cfg.Store.Driver)
	}
	if cfg.Application.SecretKey == "" {
		return Config{}, fmt.Errorf("missing application.secret_key in config=%s", filename)
	}

	return cfg, nil
}
