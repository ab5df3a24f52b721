package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	LogLevel     string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Storage      string    `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis        Redis     `yaml:"redis"`
	JWTSecretKey string    `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Game         Game      `yaml:"game"`
	WebSocket    WebSocket `yaml:"websocket"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Game struct {
	DefaultSize         int           `yaml:"default-size" env:"GAME_DEFAULT_SIZE" env-default:"19"`
	ActionCacheSize     int           `yaml:"action-cache-size" env:"GAME_ACTION_CACHE_SIZE" env-default:"300"`
	AnonymousSeatTTL    time.Duration `yaml:"anonymous-seat-ttl" env:"GAME_ANONYMOUS_SEAT_TTL" env-default:"30m"`
	AllowReopenFinished bool          `yaml:"allow-reopen-finished" env:"GAME_ALLOW_REOPEN_FINISHED" env-default:"false"`
}

type WebSocket struct {
	PingInterval   time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"25s"`
	IdleTimeout    time.Duration `yaml:"idle-timeout" env:"WS_IDLE_TIMEOUT" env-default:"70s"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	SendBuffer     int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"32"`
	OriginPatterns []string      `yaml:"origin-patterns" env:"WS_ORIGIN_PATTERNS"`
}

// MustLoad - load all configurations in config.yml file. Without the file
// the configuration comes from the environment alone.
func MustLoad(path string) *Config {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			panic(fmt.Errorf("unable to read config from env: %w", err))
		}
	} else if err = cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	if that.Storage != StorageRedis && that.Storage != StorageMemory {
		return fmt.Errorf("unknown storage %q, want %s or %s", that.Storage, StorageRedis, StorageMemory)
	}

	if that.JWTSecretKey == "" {
		return errors.New("jwt-secret-key is required")
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
