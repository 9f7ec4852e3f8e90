package config

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Address       string        `yaml:"address" env-default:":3000"`
	Env           string        `yaml:"env" env-default:"dev"`
	JWT           JWT           `yaml:"jwt"`
	Params        Params        `yaml:"params"`
	Uploads       Uploads       `yaml:"uploads"`
	DB            DB            `yaml:"db"`
	Kafka         Kafka         `yaml:"kafka"`
	Elasticsearch Elasticsearch `yaml:"elasticsearch"`
	Redis         Redis         `yaml:"redis"`
	RateLimiter   RateLimiter   `yaml:"rate_limiter"`
	Websocket     Websocket     `yaml:"websocket"`
}

type JWT struct {
	Secret string        `yaml:"-"`
	TTL    time.Duration `yaml:"ttl" env-default:"24h"`
}

type Params struct {
	Title       MinMaxLen `yaml:"title"`
	Description MaxLen    `yaml:"description"`
}

type MinMaxLen struct {
	Min int `yaml:"min" env-default:"1"`
	Max int `yaml:"max" env-default:"255"`
}

type MaxLen struct {
	Max int `yaml:"max" env-default:"1000"`
}

type Uploads struct {
	Dir          string   `yaml:"dir" env-default:"uploads"`
	MaxSize      int64    `yaml:"max_size" env-default:"5242880"`
	AllowedTypes []string `yaml:"allowed_types" env-default:"image/jpeg,image/jpg,image/png,image/gif,image/webp,application/pdf"`
}

type DB struct {
	Driver   string `yaml:"driver" env-default:"postgres"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name" env-default:"tasks"`
	DSN      string `yaml:"dsn" env-default:"tasks.db"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"topic" env-default:"task-events"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Elasticsearch struct {
	Addresses []string `yaml:"addresses"`
	Index     string   `yaml:"index" env-default:"tasks"`
}

func (e Elasticsearch) Enabled() bool {
	return len(e.Addresses) > 0
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" env-default:"0"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}

type RateLimiter struct {
	RPS   int `yaml:"rps" env-default:"20"`
	Burst int `yaml:"burst" env-default:"40"`
}

type Websocket struct {
	Path           string        `yaml:"path" env-default:"/ws"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"2s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"localhost:3000,127.0.0.1:3000"`
}

var ErrNoJWTSecret = errors.New("JWT_SECRET in env is empty")

// LoadConfig reads the yaml file at path and pulls secrets from the environment.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, ErrNoJWTSecret
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	return &cfg, nil
}

func MustLoadConfig() *Config {
	godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		panic("no config path in env")
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
