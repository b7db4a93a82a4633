package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"photometa-api/internal/logger"
)

const (
	StoreMemory    = "memory"
	StoreMySQL     = "mysql"
	StoreFirestore = "firestore"

	StorageLocal = "local"
	StorageGCS   = "gcs"
)

type Config struct {
	Port           string
	PublicBaseURL  string
	StorageRoot    string
	StorageMarker  string
	StorageBackend string
	GCSBucketName  string
	GCSPrefix      string // object name prefix inside the bucket

	SubjectStore            string
	MySQLDSN                string
	MySQLAutoMigrate        bool
	FirebaseProjectID       string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string // raw JSON, for hosts without a filesystem
	FirestoreCollection     string

	GeocodingAPIKey    string // empty disables geocoding
	GeocodingBaseURL   string
	GeocodingTimeout   time.Duration
	GeocodingRateLimit float64

	LocationCacheTTL     time.Duration
	CacheCleanupInterval time.Duration
	IOConcurrency        int64

	AllowedOrigins []string
	APIKeys        []string // comma-separated
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
	IsVercel       bool // detected via VERCEL env var
}

// Load reads configuration from environment variables and .env file.
// Returns an error if required configuration is missing.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		logger.Logger.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost/wp-content/uploads"),
		StorageRoot:    getEnv("STORAGE_ROOT", "./uploads"),
		StorageMarker:  getEnv("STORAGE_MARKER", "/uploads/"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		GCSBucketName:  getEnv("GCS_BUCKET_NAME", ""),
		GCSPrefix:      getEnv("GCS_PREFIX", ""),

		SubjectStore:            strings.ToLower(getEnv("SUBJECT_STORE", StoreMemory)),
		MySQLDSN:                getEnv("MYSQL_DSN", ""),
		MySQLAutoMigrate:        getBoolEnv("MYSQL_AUTO_MIGRATE", true),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirestoreCollection:     getEnv("FIRESTORE_COLLECTION", "subjects"),

		GeocodingAPIKey:    getEnv("GOOGLE_GEOCODING_API_KEY", ""),
		GeocodingBaseURL:   getEnv("GEOCODING_BASE_URL", "https://maps.googleapis.com"),
		GeocodingTimeout:   getDurationEnv("GEOCODING_TIMEOUT", 10*time.Second),
		GeocodingRateLimit: getFloatEnv("GEOCODING_RATE_LIMIT", 10),

		LocationCacheTTL:     getDurationEnv("LOCATION_CACHE_TTL", 15*time.Minute),
		CacheCleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		IOConcurrency:        int64(getIntEnv("IO_CONCURRENCY", 8)),

		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		APIKeys:        getList("API_KEYS", []string{}),
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 20),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		IsVercel:       getEnv("VERCEL", "") != "",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	switch c.SubjectStore {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when SUBJECT_STORE is mysql")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when SUBJECT_STORE is firestore")
		}
		if c.FirestoreCollection == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION is required")
		}
	default:
		return fmt.Errorf("unknown SUBJECT_STORE %q", c.SubjectStore)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.StorageRoot == "" {
			return fmt.Errorf("STORAGE_ROOT is required")
		}
	case StorageGCS:
		if c.GCSBucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME is required when STORAGE_BACKEND is gcs")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.GeocodingTimeout <= 0 {
		return fmt.Errorf("GEOCODING_TIMEOUT must be positive")
	}
	if c.LocationCacheTTL <= 0 {
		return fmt.Errorf("LOCATION_CACHE_TTL must be positive")
	}
	if c.CacheCleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}
	if c.IOConcurrency <= 0 {
		return fmt.Errorf("IO_CONCURRENCY must be positive")
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is required (comma-separated list of API keys)")
	}
	return nil
}

// UsesFirebaseCredentials reports whether Google clients need the service
// account credentials.
func (c *Config) UsesFirebaseCredentials() bool {
	return c.SubjectStore == StoreFirestore || c.StorageBackend == StorageGCS
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves a duration from environment variable or returns a default value.
// It supports both time.Duration format (e.g., "10m", "12h") and integer minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// Retrieves a comma-separated list from environment variable or returns a default value.
// Entries are trimmed and empty entries dropped.
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Retrieves a boolean from environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
