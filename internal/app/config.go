package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/curately/groundtruth-backend/internal/platform/envutil"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	SharedSecret       string `yaml:"shared_secret"`
	SharedSecretBcrypt string `yaml:"shared_secret_bcrypt"`
	JWTSecretKey       string `yaml:"jwt_secret_key"`
	SessionTTLSeconds  int    `yaml:"session_ttl_seconds"`
}

type StorageConfig struct {
	Mode      string `yaml:"mode"`
	Bucket    string `yaml:"bucket"`
	LocalPath string `yaml:"local_path"`
}

type DatasetConfig struct {
	EntrySlot            string `yaml:"entry_slot"`
	DocumentSlot         string `yaml:"document_slot"`
	DeleteConfirmSeconds int    `yaml:"delete_confirm_seconds"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Dataset DatasetConfig `yaml:"dataset"`
	CORS    CORSConfig    `yaml:"cors"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Mode: "development"},
		Auth: AuthConfig{
			JWTSecretKey:      "defaultsecret",
			SessionTTLSeconds: 86400,
		},
		Storage: StorageConfig{
			Mode:      "local",
			LocalPath: "groundtruth.db",
		},
		Dataset: DatasetConfig{
			EntrySlot:            "current-dataset.json",
			DocumentSlot:         "current-jsonl-dataset.json",
			DeleteConfirmSeconds: 5,
		},
	}
}

// LoadConfig layers the optional YAML file over defaults, then environment
// variables over both.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Port = envutil.GetEnvAsInt("PORT", cfg.Server.Port, log)
	cfg.Log.Mode = envutil.GetEnv("LOG_MODE", cfg.Log.Mode, log)

	cfg.Auth.SharedSecret = envutil.GetEnv("SHARED_SECRET", cfg.Auth.SharedSecret, log)
	cfg.Auth.SharedSecretBcrypt = envutil.GetEnv("SHARED_SECRET_BCRYPT", cfg.Auth.SharedSecretBcrypt, log)
	cfg.Auth.JWTSecretKey = envutil.GetEnv("JWT_SECRET_KEY", cfg.Auth.JWTSecretKey, log)
	cfg.Auth.SessionTTLSeconds = envutil.GetEnvAsInt("SESSION_TTL_SECONDS", cfg.Auth.SessionTTLSeconds, log)

	cfg.Storage.Mode = envutil.GetEnv("STORAGE_MODE", cfg.Storage.Mode, log)
	cfg.Storage.Bucket = envutil.GetEnv("STORAGE_BUCKET", cfg.Storage.Bucket, log)
	cfg.Storage.LocalPath = envutil.GetEnv("STORAGE_LOCAL_PATH", cfg.Storage.LocalPath, log)

	cfg.Dataset.DeleteConfirmSeconds = envutil.GetEnvAsInt("DELETE_CONFIRM_SECONDS", cfg.Dataset.DeleteConfirmSeconds, log)

	if origins := envutil.GetEnv("CORS_ALLOW_ORIGINS", "", log); origins != "" {
		cfg.CORS.AllowOrigins = splitAndTrim(origins)
	}

	return cfg, nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLSeconds) * time.Second
}

func (c Config) DeleteConfirmWindow() time.Duration {
	return time.Duration(c.Dataset.DeleteConfirmSeconds) * time.Second
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
