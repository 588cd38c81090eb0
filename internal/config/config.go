package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/mcworld/internal/logging"
)

// Config корневая структура конфигурации сервиса.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Server    ServerConfig    `yaml:"server"`
	Logging   logging.Config  `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type WorldConfig struct {
	Path                 string `yaml:"path"`
	CacheCapacity        int    `yaml:"cache_capacity"`
	SkipBrokenRegionsets bool   `yaml:"skip_broken_regionsets"`
}

type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GinMode  string `yaml:"gin_mode"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// GetPath возвращает путь к миру: config -> env -> текущий каталог
func (w *WorldConfig) GetPath() string {
	return getStringWithEnvFallback(w.Path, "MCWORLD_WORLD_PATH", ".")
}

// GetCacheCapacity возвращает ёмкость кеша файлов регионов (0 - значение по умолчанию кеша)
func (w *WorldConfig) GetCacheCapacity() int {
	return getIntWithEnvFallback(w.CacheCapacity, "MCWORLD_CACHE_CAPACITY", 0)
}

// GetHTTPAddr возвращает адрес REST API с поддержкой fallback значений
func (s *ServerConfig) GetHTTPAddr() string {
	return getStringWithEnvFallback(s.HTTPAddr, "MCWORLD_HTTP_ADDR", ":8088")
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "MCWORLD_SERVICE_NAME", "mcworld")
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV MCWORLD_CONFIG или возвращает пустой конфиг.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MCWORLD_CONFIG")
		if path == "" {
			return &Config{}, nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
