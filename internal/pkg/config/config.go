package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Client     Client     `yaml:"client"`
	Session    Session    `yaml:"session"`
	Cache      Cache      `yaml:"cache"`
	RedisCache RedisCache `yaml:"rdb"`
	Logger     Logger     `yaml:"logger"`
	Mock       Mock       `yaml:"mock"`
}

type Client struct {
	BaseURL         string        `env:"READLATER_API_URL"  env-default:"http://localhost:8080" yaml:"baseURL"`
	Timeout         time.Duration `env:"READLATER_TIMEOUT"  env-default:"15s"                   yaml:"timeout"`
	RefreshInterval time.Duration `env-default:"30s"        yaml:"refreshInterval"`
	ProxyImageHosts []string      `env-default:"mmbiz.qpic.cn,wx.qpic.cn,mmbiz.qlogo.cn" yaml:"proxyImageHosts"`
}

// Session.Store is one of "file", "redis" or "memory".
type Session struct {
	Store string `env:"READLATER_SESSION_STORE" env-default:"file"       yaml:"store"`
	Path  string `env:"READLATER_SESSION_PATH"  yaml:"path"`
	Key   string `env-default:"auth_token"      yaml:"key"`
}

// Cache.Backend is one of "memory", "redis" or "none".
type Cache struct {
	Backend string        `env:"READLATER_CACHE" env-default:"memory" yaml:"backend"`
	Size    int           `env-default:"256"     yaml:"size"`
	TTL     time.Duration `env-default:"10m"     yaml:"ttl"`
}

type RedisCache struct {
	Addr     string        `env:"READLATER_REDIS_ADDR" env-default:"localhost:6379" yaml:"addr"`
	Password string        `env:"READLATER_REDIS_PASSWORD" yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `env-default:"10m" yaml:"exp"`
}

type Logger struct {
	Level     string   `env:"READLATER_LOG_LEVEL" env-default:"warn" yaml:"level"`
	Encoding  string   `env-default:"console" yaml:"encoding"`
	Output    []string `env-default:"stderr"  yaml:"output"`
	ErrOutput []string `env-default:"stderr"  yaml:"errOutput"`
}

type Mock struct {
	Addr         string        `env:"READLATER_MOCK_ADDR"   env-default:":8080" yaml:"addr"`
	Secret       string        `env:"READLATER_MOCK_SECRET" env-default:"change-me" yaml:"secret"`
	TTL          time.Duration `env-default:"24h" yaml:"ttl"`
	ReadTimeout  time.Duration `env-default:"10s" yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"60s" yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"30s" yaml:"writeTimeout"`
}

// New reads the YAML file at configPath, or only the environment when
// configPath is empty.
func New(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env error: %w", err)
		}

		return cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	return cfg, nil
}
