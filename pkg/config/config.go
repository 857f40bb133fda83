package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath ruta por defecto del archivo de configuración
const DefaultPath = "quizdeck.yaml"

// Config configuración completa del servidor de quizzes
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configura el servidor HTTP
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"` // contiene quizzes.csv y quizzes/<carpeta>/<carpeta>.csv
	Watch     bool   `yaml:"watch"`
}

// SourceConfig configura el origen HTTP de los CSV
type SourceConfig struct {
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	Encoding    string `yaml:"encoding"` // utf-8, euc-kr
	Concurrency int    `yaml:"concurrency"`
}

// CacheConfig configura la caché de quizzes y del catálogo
type CacheConfig struct {
	Backend     string      `yaml:"backend"` // memory, redis
	QuizTTL     string      `yaml:"quiz_ttl"`
	MetadataTTL string      `yaml:"metadata_ttl"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig configura el backend Redis de la caché
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LoggingConfig configura zap
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	defaultSourceTimeout = 10 * time.Second
	defaultQuizTTL       = 10 * time.Minute
	defaultMetadataTTL   = 5 * time.Minute
)

// DefaultConfig devuelve la configuración por defecto
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			StaticDir: "./static",
			Watch:     true,
		},
		Source: SourceConfig{
			BaseURL:     "http://127.0.0.1:8080",
			Timeout:     "10s",
			Encoding:    "utf-8",
			Concurrency: 8,
		},
		Cache: CacheConfig{
			Backend:     "memory",
			QuizTTL:     "10m",
			MetadataTTL: "5m",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "quizdeck:",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load lee la configuración desde un archivo YAML. Si el archivo no existe
// se usan los valores por defecto. Las variables de entorno siempre ganan.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parseando configuración %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("error leyendo configuración %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getEnv("QUIZ_LISTEN_ADDR", c.Server.Addr)
	c.Server.StaticDir = getEnv("QUIZ_STATIC_DIR", c.Server.StaticDir)
	c.Source.BaseURL = getEnv("QUIZ_SOURCE_URL", c.Source.BaseURL)
	c.Source.Encoding = getEnv("QUIZ_SOURCE_ENCODING", c.Source.Encoding)
	c.Cache.Backend = getEnv("QUIZ_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Redis.Addr = getEnv("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Logging.Level = getEnv("QUIZ_LOG_LEVEL", c.Logging.Level)
}

// Validate verifica que la configuración sea utilizable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return fmt.Errorf("source.base_url es requerido")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend desconocido: %q", c.Cache.Backend)
	}
	switch strings.ToLower(c.Source.Encoding) {
	case "", "utf-8", "utf8", "euc-kr", "cp949":
	default:
		return fmt.Errorf("source.encoding no soportado: %q", c.Source.Encoding)
	}
	if c.Source.Concurrency < 0 {
		return fmt.Errorf("source.concurrency no puede ser negativo")
	}
	return nil
}

// GetSourceTimeout devuelve el timeout de las peticiones al origen
func (c *Config) GetSourceTimeout() time.Duration {
	return parseDuration(c.Source.Timeout, defaultSourceTimeout)
}

// GetQuizTTL devuelve la vigencia de un quiz en caché
func (c *Config) GetQuizTTL() time.Duration {
	return parseDuration(c.Cache.QuizTTL, defaultQuizTTL)
}

// GetMetadataTTL devuelve la vigencia del catálogo en caché
func (c *Config) GetMetadataTTL() time.Duration {
	return parseDuration(c.Cache.MetadataTTL, defaultMetadataTTL)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
