package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	DataDir     string
	DBPath      string
	LogFile     string

	// EncryptionKey seals service auth tokens at rest. It may be empty
	// before setup, in which case token loading fails.
	EncryptionKey string

	GitHubAPIURL               string
	HTTPTimeoutSec             int
	PullRequestLimit           int
	PullRequestRefreshSchedule string

	InitialRoute string
	WatchStore   bool
}

func FromEnv() Config {
	dataDir := stringOrDefault("REVIEW_VIR_DATA_DIR", defaultDataDir())
	dbPath := stringOrDefault("REVIEW_VIR_DB_PATH", filepath.Join(dataDir, "review-vir.sqlite"))

	return Config{
		Environment:                stringOrDefault("REVIEW_VIR_ENV", "development"),
		DataDir:                    dataDir,
		DBPath:                     dbPath,
		LogFile:                    stringOrDefault("REVIEW_VIR_LOG_FILE", filepath.Join(dataDir, "review-vir.log")),
		EncryptionKey:              strings.TrimSpace(os.Getenv("REVIEW_VIR_ENCRYPTION_KEY")),
		GitHubAPIURL:               stringOrDefault("REVIEW_VIR_GITHUB_API_URL", "https://api.github.com"),
		HTTPTimeoutSec:             intOrDefault("REVIEW_VIR_HTTP_TIMEOUT_SECONDS", 30),
		PullRequestLimit:           intOrDefault("REVIEW_VIR_PR_LIMIT", 50),
		PullRequestRefreshSchedule: stringOrDefault("REVIEW_VIR_PR_REFRESH_SCHEDULE", "@every 5m"),
		InitialRoute:               strings.TrimSpace(os.Getenv("REVIEW_VIR_INITIAL_ROUTE")),
		WatchStore:                 boolOrDefault("REVIEW_VIR_WATCH_STORE", true),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".review-vir"
	}
	return filepath.Join(home, ".review-vir")
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
