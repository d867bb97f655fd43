package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App      App      `yaml:"app"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Billing  Billing  `yaml:"billing"`
	Relay    Relay    `yaml:"relay"`
}

type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"patient-service"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"user"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"patients_db"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"patient-events"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"analytics-service"`
}

type Billing struct {
	Address     string        `yaml:"address" env:"BILLING_ADDRESS" env-default:"http://localhost:9001"`
	Timeout     time.Duration `yaml:"timeout" env:"BILLING_TIMEOUT" env-default:"3s"`
	MaxAttempts int           `yaml:"max_attempts" env:"BILLING_MAX_ATTEMPTS" env-default:"3"`
	Backoff     time.Duration `yaml:"backoff" env:"BILLING_BACKOFF" env-default:"200ms"`
}

type Relay struct {
	Interval  time.Duration `yaml:"interval" env:"RELAY_INTERVAL" env-default:"2s"`
	BatchSize int           `yaml:"batch_size" env:"RELAY_BATCH_SIZE" env-default:"50"`
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else {
		// Allow env vars to override config file
		cleanenv.ReadEnv(cfg)
	}

	return cfg, nil
}
