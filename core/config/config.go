package config

import (
	"fmt"
	"schedule-board/core/logger"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type ScheduleConfig struct {
	// MaxSlotIndex bounds accepted time_slot_index values, inclusive. Kept
	// configurable because deployments may run with a narrower DB constraint
	// than the full slot catalog.
	MaxSlotIndex int
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Schedule ScheduleConfig
}

var (
	instance *Config
	once     sync.Once
)

func Load() (*Config, error) {
	var err error
	once.Do(func() {
		// .env is optional; real deployments inject env vars directly.
		_ = godotenv.Load()

		v := viper.New()
		v.AutomaticEnv()

		v.SetDefault("SERVER_PORT", 7070)
		v.SetDefault("SERVER_ENV", "development")
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("DB_HOST", "localhost")
		v.SetDefault("DB_PORT", 5432)
		v.SetDefault("DB_USER", "postgres")
		v.SetDefault("DB_PASSWORD", "")
		v.SetDefault("DB_NAME", "schedule_board")
		v.SetDefault("DB_SSLMODE", "disable")
		v.SetDefault("REDIS_ADDR", "localhost:6379")
		v.SetDefault("REDIS_PASSWORD", "")
		v.SetDefault("REDIS_DB", 0)
		v.SetDefault("SCHEDULE_MAX_SLOT_INDEX", 12)

		cfg := &Config{
			Server: ServerConfig{
				Port:     v.GetInt("SERVER_PORT"),
				Env:      v.GetString("SERVER_ENV"),
				LogLevel: v.GetString("LOG_LEVEL"),
			},
			Database: DatabaseConfig{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetInt("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				DBName:   v.GetString("DB_NAME"),
				SSLMode:  v.GetString("DB_SSLMODE"),
			},
			Redis: RedisConfig{
				Addr:     v.GetString("REDIS_ADDR"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
			},
			JWT: JWTConfig{
				Secret: v.GetString("JWT_SECRET"),
			},
			Schedule: ScheduleConfig{
				MaxSlotIndex: v.GetInt("SCHEDULE_MAX_SLOT_INDEX"),
			},
		}

		if cfg.JWT.Secret == "" {
			err = fmt.Errorf("JWT_SECRET is required")
			return
		}

		instance = cfg
		logger.Info("Config:Loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	})
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return instance, nil
}

// Get returns the loaded config; panics when Load was never called. Prefer
// GetSafe outside of server bootstrap.
func Get() *Config {
	if instance == nil {
		panic("config: Get called before Load")
	}
	return instance
}

func GetSafe() (*Config, bool) {
	return instance, instance != nil
}
