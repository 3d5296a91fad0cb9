// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Session                 `yaml:"session"`
	Gate                    `yaml:"gate"`
	RabbitMQ                `yaml:"rabbitmq"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"1s"`
}

// Session настройки сессионного токена (JWT в cookie).
type Session struct {
	SecretKey     string        `yaml:"secret_key" env:"SESSION_SECRET_KEY" env-required:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"24h"`
	RefreshBefore time.Duration `yaml:"refresh_before" env-default:"1h"`
	CookieName    string        `yaml:"cookie_name" env-default:"session"`
	CookieSecure  bool          `yaml:"cookie_secure"`
}

// Gate настройки точки контроля доступа: таймауты внешних запросов и адреса редиректов.
type Gate struct {
	IdentityTimeout         time.Duration `yaml:"identity_timeout" env-default:"500ms"`
	ProfileTimeout          time.Duration `yaml:"profile_timeout" env-default:"2s"`
	LoginPath               string        `yaml:"login_path" env-default:"/login"`
	HomePath                string        `yaml:"home_path" env-default:"/"`
	AdminHomePath           string        `yaml:"admin_home_path" env-default:"/admin"`
	SubscriptionExpiredPath string        `yaml:"subscription_expired_path" env-default:"/subscription-expired"`
}

// RabbitMQ настройки публикации событий безопасности. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string        `yaml:"exchange" env-default:"security"`
	Retries  int           `yaml:"retries" env-default:"5"`
	Delay    time.Duration `yaml:"delay" env-default:"2s"`
}

// RateLimit ограничение частоты запросов на вход с одного адреса.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"5"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, дополняя его переменными окружения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.RefreshBefore >= cfg.TokenTTL {
		return nil, fmt.Errorf("%s: refresh_before (%s) must be less than token_ttl (%s)", op, cfg.RefreshBefore, cfg.TokenTTL)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"  DialTimeout: %s\n"+
			"  Timeout: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Session:\n"+
			"  TokenTTL: %s\n"+
			"  RefreshBefore: %s\n"+
			"  CookieName: %s\n"+
			"Gate:\n"+
			"  IdentityTimeout: %s\n"+
			"  ProfileTimeout: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.MaxRetries,
		c.DialTimeout,
		c.TimeoutRedis,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.RefreshBefore,
		c.CookieName,
		c.IdentityTimeout,
		c.ProfileTimeout,
	)
}
