// Package config loads the debt tracker configuration from environment
// variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendGist = "gist"
	BackendFile = "file"
)

// Config represents the application configuration.
type Config struct {
	Gist       GistConfig
	Storage    StorageConfig
	Backup     BackupConfig
	Notify     NotifyConfig
	ServerAddr string
	Debug      bool
}

// GistConfig represents the remote document store configuration.
type GistConfig struct {
	Token    string
	ID       string
	APIURL   string
	Filename string
	Timeout  time.Duration
}

// StorageConfig represents local storage configuration.
type StorageConfig struct {
	Backend      string
	DataRoot     string
	HistoryDB    string
	ExportsDir   string
	DocumentPath string
}

// BackupConfig represents the S3-compatible snapshot bucket.
type BackupConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// NotifyConfig represents the overdue notification target.
type NotifyConfig struct {
	WebhookURL string
}

// Load loads configuration from environment variables.
// It loads .env from the current directory if present, or the given file,
// which must then exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("GIST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	useSSL, err := parseBoolEnv("BACKUP_USE_SSL", true)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendGist))
	if backend != BackendGist && backend != BackendFile {
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (expected %q or %q)", backend, BackendGist, BackendFile)
	}

	config := &Config{
		Gist: GistConfig{
			Token:    os.Getenv("GIST_TOKEN"),
			ID:       os.Getenv("GIST_ID"),
			APIURL:   getEnvOrDefault("GIST_API_URL", "https://api.github.com"),
			Filename: getEnvOrDefault("GIST_FILENAME", "dados.json"),
			Timeout:  timeout,
		},
		Storage: StorageConfig{
			Backend:      backend,
			DataRoot:     getEnvOrDefault("DATA_ROOT", "./data"),
			HistoryDB:    os.Getenv("HISTORY_DB_PATH"),
			ExportsDir:   os.Getenv("EXPORTS_DIR"),
			DocumentPath: os.Getenv("LOCAL_DOCUMENT_PATH"),
		},
		Backup: BackupConfig{
			Endpoint:  os.Getenv("BACKUP_ENDPOINT"),
			AccessKey: os.Getenv("BACKUP_ACCESS_KEY"),
			SecretKey: os.Getenv("BACKUP_SECRET_KEY"),
			Region:    os.Getenv("BACKUP_REGION"),
			Bucket:    os.Getenv("BACKUP_BUCKET"),
			UseSSL:    useSSL,
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("OVERDUE_WEBHOOK_URL"),
		},
		ServerAddr: getEnvOrDefault("SERVER_ADDR", ":8090"),
		Debug:      os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that every required field is set.
// Each path is a section and a field, e.g. []string{"gist", "token"}.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "gist":
			switch path[1] {
			case "token":
				value = c.Gist.Token
			case "id":
				value = c.Gist.ID
			case "apiUrl":
				value = c.Gist.APIURL
			}
		case "storage":
			switch path[1] {
			case "dataRoot":
				value = c.Storage.DataRoot
			case "documentPath":
				value = c.Storage.DocumentPath
			}
		case "backup":
			switch path[1] {
			case "endpoint":
				value = c.Backup.Endpoint
			case "accessKey":
				value = c.Backup.AccessKey
			case "secretKey":
				value = c.Backup.SecretKey
			case "bucket":
				value = c.Backup.Bucket
			}
		case "notify":
			if path[1] == "webhookUrl" {
				value = c.Notify.WebhookURL
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// RequiredForStore returns the keys the selected backend needs.
func (c *Config) RequiredForStore() [][]string {
	if c.Storage.Backend == BackendFile {
		return nil
	}
	return [][]string{{"gist", "token"}, {"gist", "id"}}
}

// RequiredForBackup returns the keys snapshot commands need.
func RequiredForBackup() [][]string {
	return [][]string{
		{"backup", "endpoint"},
		{"backup", "accessKey"},
		{"backup", "secretKey"},
		{"backup", "bucket"},
	}
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	return parsed, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}
	return parsed, nil
}
