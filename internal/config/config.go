// Package config reads process configuration from the environment. A
// config.env file in the user config directory is loaded first if present.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	AppName     = "iam-recruit"
	EnvFileName = "config.env"
)

// FilePath returns the path of the config file in the user's config directory.
func FilePath() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	path, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// SaveEnvFile merges values into the config file and returns its path. The
// file holds the session key so it is kept at 0600.
func SaveEnvFile(values map[string]string) (string, error) {
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	existing, err := godotenv.Read(path)
	if err != nil {
		existing = map[string]string{}
	}
	for k, v := range values {
		existing[k] = v
	}

	if err := godotenv.Write(existing, path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("failed to restrict config file: %w", err)
	}
	return path, nil
}

// GenerateTokenKey returns a random passphrase for RECRUIT_TOKEN_KEY.
func GenerateTokenKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Server is the BFF configuration.
type Server struct {
	APIURL      string
	ListenAddr  string
	AppEnv      string
	LogLevel    string
	MetricsAddr string
	WebRoot     string
}

func LoadServer() Server {
	return Server{
		APIURL:      strings.TrimRight(os.Getenv("API_URL"), "/"),
		ListenAddr:  getenv("LISTEN_ADDR", ":3000"),
		AppEnv:      getenv("APP_ENV", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		WebRoot:     os.Getenv("WEB_ROOT"),
	}
}

// Missing lists required variables that are unset.
func (s Server) Missing() []string {
	var missing []string
	if s.APIURL == "" {
		missing = append(missing, "API_URL")
	}
	return missing
}

// Production reports whether cookies must be marked Secure.
func (s Server) Production() bool {
	return s.AppEnv == "production"
}

// Level parses LogLevel, falling back to info.
func (s Server) Level() zerolog.Level {
	return parseLevel(s.LogLevel)
}

// CLI is the recruitctl configuration.
type CLI struct {
	BFFURL   string
	DBPath   string
	TokenKey string
	LogLevel string
}

func LoadCLI() CLI {
	return CLI{
		BFFURL:   strings.TrimRight(getenv("RECRUIT_BFF_URL", "http://localhost:3000"), "/"),
		DBPath:   getenv("RECRUIT_DB_PATH", defaultDBPath()),
		TokenKey: os.Getenv("RECRUIT_TOKEN_KEY"),
		LogLevel: getenv("LOG_LEVEL", "warn"),
	}
}

func (c CLI) Missing() []string {
	var missing []string
	if c.TokenKey == "" {
		missing = append(missing, "RECRUIT_TOKEN_KEY")
	}
	return missing
}

func (c CLI) Level() zerolog.Level {
	return parseLevel(c.LogLevel)
}

func defaultDBPath() string {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "recruit.db"
	}
	return filepath.Join(configBase, AppName, "recruit.db")
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
