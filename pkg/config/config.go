package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultPrivacyStatus = "private"
	defaultCategoryID    = "17" // sports
	defaultLanguage      = "en"
	defaultFootageDir    = "./footage"
	defaultCacheDir      = "./.cache"
	defaultWatchURL      = "https://youtube.com/watch"
	defaultListenAddr    = ":8090"
)

type Config struct {
	// Environment-sourced values; secrets never live in config.yaml.
	SessionToken       string
	BrokerURL          string
	ChannelID          string
	FootageBucket      string
	GoogleCloudProject string

	// Broker-side OAuth client credentials. Only the broker process reads
	// these; the CLI pipeline never needs them.
	BrokerOAuthClientID     string
	BrokerOAuthClientSecret string

	Upload  UploadConfig  `yaml:"upload"`
	API     APIConfig     `yaml:"api"`
	Broker  BrokerConfig  `yaml:"broker"`
	Footage FootageConfig `yaml:"footage"`
}

type UploadConfig struct {
	PrivacyStatus string   `yaml:"privacy_status"`
	DefaultTags   []string `yaml:"default_tags"`
	CategoryID    string   `yaml:"category_id"`
	Language      string   `yaml:"language"`
	AudioLanguage string   `yaml:"audio_language"`
	MadeForKids   bool     `yaml:"made_for_kids"`
}

type APIConfig struct {
	UploadURL string `yaml:"upload_url"`
	VideosURL string `yaml:"videos_url"`
	WatchURL  string `yaml:"watch_url"`
}

type BrokerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	RedirectURL string `yaml:"redirect_url"`
}

type FootageConfig struct {
	Dir          string `yaml:"dir"`
	CacheDir     string `yaml:"cache_dir"`
	BucketPrefix string `yaml:"bucket_prefix"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		SessionToken:            os.Getenv("TEAMREEL_SESSION"),
		BrokerURL:               os.Getenv("BROKER_URL"),
		ChannelID:               os.Getenv("CHANNEL_ID"),
		FootageBucket:           os.Getenv("FOOTAGE_BUCKET"),
		GoogleCloudProject:      os.Getenv("GOOGLE_CLOUD_PROJECT"),
		BrokerOAuthClientID:     os.Getenv("BROKER_OAUTH_CLIENT_ID"),
		BrokerOAuthClientSecret: os.Getenv("BROKER_OAUTH_CLIENT_SECRET"),
	}

	loadYAMLConfig(cfg)
	applyDefaults(cfg)

	return cfg
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	applyUploadDefaults(cfg)
	applyAPIDefaults(cfg)
	applyBrokerDefaults(cfg)
	applyFootageDefaults(cfg)
}

func applyUploadDefaults(cfg *Config) {
	if cfg.Upload.PrivacyStatus == "" {
		cfg.Upload.PrivacyStatus = defaultPrivacyStatus
	}
	if cfg.Upload.CategoryID == "" {
		cfg.Upload.CategoryID = defaultCategoryID
	}
	if cfg.Upload.Language == "" {
		cfg.Upload.Language = defaultLanguage
	}
	if len(cfg.Upload.DefaultTags) == 0 {
		cfg.Upload.DefaultTags = []string{"training", "match"}
	}
}

func applyAPIDefaults(cfg *Config) {
	if cfg.API.WatchURL == "" {
		cfg.API.WatchURL = defaultWatchURL
	}
}

func applyBrokerDefaults(cfg *Config) {
	if cfg.Broker.ListenAddr == "" {
		cfg.Broker.ListenAddr = defaultListenAddr
	}
}

func applyFootageDefaults(cfg *Config) {
	if cfg.Footage.Dir == "" {
		cfg.Footage.Dir = defaultFootageDir
	}
	if cfg.Footage.CacheDir == "" {
		cfg.Footage.CacheDir = defaultCacheDir
	}
}
