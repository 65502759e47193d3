package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3311
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 5432
	defaultDBUser     = "postgres"
	defaultDBPassword = "postgres"
	defaultDBName     = "biblia_chat"
	defaultDBSSLMode  = "disable"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultBibleAPIBase = "https://data.biblia.chat"
	defaultChatAPIURL   = "https://api.biblia.chat/v1/gpt5"
	defaultVoiceAPIURL  = "https://api.biblia.chat/voice"
	defaultVoiceName    = "es-VE-SebastianNeural"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	JWTSecret      string                `yaml:"jwt_secret"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Timezone       string                `yaml:"timezone"`
	BibleAPI       BibleAPIConfig        `yaml:"bible_api"`
	ChatAPI        ChatAPIConfig         `yaml:"chat_api"`
	VoiceAPI       VoiceAPIConfig        `yaml:"voice_api"`
}

// DatabaseRuntimeConfig describes the Postgres credential store.
type DatabaseRuntimeConfig struct {
	DSN      string `yaml:"dsn"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BibleAPIConfig points at the external Bible content service.
type BibleAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ChatAPIConfig points at the external chat-completions service.
type ChatAPIConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// VoiceAPIConfig points at the external audio-synthesis service.
type VoiceAPIConfig struct {
	URL          string `yaml:"url"`
	APIKey       string `yaml:"api_key"`
	DefaultVoice string `yaml:"default_voice"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	if cfg.Redis.DB < 0 {
		return nil, fmt.Errorf("invalid redis.db %d in %q, expected >= 0", cfg.Redis.DB, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			SSLMode:  defaultDBSSLMode,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		BibleAPI: BibleAPIConfig{BaseURL: defaultBibleAPIBase},
		ChatAPI:  ChatAPIConfig{URL: defaultChatAPIURL},
		VoiceAPI: VoiceAPIConfig{
			URL:          defaultVoiceAPIURL,
			DefaultVoice: defaultVoiceName,
		},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.BibleAPI.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BibleAPI.BaseURL), "/")
	if cfg.BibleAPI.BaseURL == "" {
		cfg.BibleAPI.BaseURL = defaultBibleAPIBase
	}
	cfg.ChatAPI.URL = strings.TrimSpace(cfg.ChatAPI.URL)
	if cfg.ChatAPI.URL == "" {
		cfg.ChatAPI.URL = defaultChatAPIURL
	}
	cfg.VoiceAPI.URL = strings.TrimSpace(cfg.VoiceAPI.URL)
	if cfg.VoiceAPI.URL == "" {
		cfg.VoiceAPI.URL = defaultVoiceAPIURL
	}
	if strings.TrimSpace(cfg.VoiceAPI.DefaultVoice) == "" {
		cfg.VoiceAPI.DefaultVoice = defaultVoiceName
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(origin)
		if o == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

func normalizeEnv(env string) string {
	e := strings.ToLower(strings.TrimSpace(env))
	if e == "" {
		return defaultEnv
	}
	return e
}

func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
