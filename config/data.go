package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBase is the Strapi origin assumed when NEXT_PUBLIC_API_URL is unset.
const DefaultAPIBase = "http://localhost:1337"

// Config is the process-wide configuration. It is built once by Load at
// startup and handed to every component that needs it.
type Config struct {
	CDN       CDN
	Images    Images
	R2        R2Options
	GCS       GCSOptions
	SFTP      SFTPOptions
	Port      string
	LogLevel  string
	StrapiURL string // reverse proxy origin

	DataDir         string
	ServeDir        string
	UploadProvider  string
	UploadJWTSecret string
	RedirectRefresh time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	cdn := LoadCDN()
	strapi := trimBase(os.Getenv("STRAPI_URL"))
	if strapi == "" {
		strapi = cdn.APIBaseOrDefault()
	}

	return &Config{
		CDN:             cdn,
		Images:          LoadImages(),
		R2:              LoadR2Options(),
		GCS:             LoadGCSOptions(),
		SFTP:            LoadSFTPOptions(),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StrapiURL:       strapi,
		DataDir:         GetDataDir(),
		ServeDir:        GetServeDir(),
		UploadProvider:  strings.ToLower(getEnv("UPLOAD_PROVIDER", "r2")),
		UploadJWTSecret: os.Getenv("UPLOAD_JWT_SECRET"),
		RedirectRefresh: getDuration("REDIRECT_REFRESH", 5*time.Minute),
	}
}

// GetDataDir returns the directory holding mediaedge's databases.
// Priority: MEDIAEDGE_DATA_DIR environment variable > "./data" default
func GetDataDir() string {
	return getEnv("MEDIAEDGE_DATA_DIR", "./data")
}

// GetUploadsDBPath returns the full path to the upload record database.
// Path: {DATA_DIR}/uploads.db
func GetUploadsDBPath() string {
	return filepath.Join(GetDataDir(), "uploads.db")
}

// GetServeDir returns the base directory for the local upload provider.
// Files written there are served by the HTTP server under /uploads/.
// Configurable via MEDIAEDGE_SERVE_DIR for server administrators only.
func GetServeDir() string {
	return getEnv("MEDIAEDGE_SERVE_DIR", "./serve")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// trimBase normalises a base URL so callers can append paths starting with "/".
func trimBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
