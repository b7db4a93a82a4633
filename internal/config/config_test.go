package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:                 "8080",
		StorageRoot:          "./uploads",
		StorageBackend:       StorageLocal,
		SubjectStore:         StoreMemory,
		FirestoreCollection:  "subjects",
		GeocodingTimeout:     10 * time.Second,
		LocationCacheTTL:     15 * time.Minute,
		CacheCleanupInterval: 10 * time.Minute,
		IOConcurrency:        8,
		APIKeys:              []string{"key"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"mysql without dsn", func(c *Config) { c.SubjectStore = StoreMySQL }, "MYSQL_DSN"},
		{"mysql with dsn", func(c *Config) { c.SubjectStore = StoreMySQL; c.MySQLDSN = "u:p@tcp(db:3306)/photometa" }, ""},
		{"firestore without project", func(c *Config) { c.SubjectStore = StoreFirestore }, "FIREBASE_PROJECT_ID"},
		{"unknown store", func(c *Config) { c.SubjectStore = "redis" }, "SUBJECT_STORE"},
		{"gcs without bucket", func(c *Config) { c.StorageBackend = StorageGCS }, "GCS_BUCKET_NAME"},
		{"unknown storage", func(c *Config) { c.StorageBackend = "s3" }, "STORAGE_BACKEND"},
		{"no api keys", func(c *Config) { c.APIKeys = nil }, "API_KEYS"},
		{"zero io concurrency", func(c *Config) { c.IOConcurrency = 0 }, "IO_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_DURATION", "15")
	t.Setenv("TEST_LIST", " a, b ,,c ")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_INT", "nope")

	if got := getDurationEnv("TEST_DURATION", time.Second); got != 15*time.Minute {
		t.Errorf("getDurationEnv = %v", got)
	}
	if got := getList("TEST_LIST", nil); strings.Join(got, "|") != "a|b|c" {
		t.Errorf("getList = %q", got)
	}
	if got := getFloatEnv("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getFloatEnv = %v", got)
	}
	if got := getBoolEnv("TEST_BOOL", true); got {
		t.Errorf("getBoolEnv = %v", got)
	}
	if got := getIntEnv("TEST_INT", 7); got != 7 {
		t.Errorf("getIntEnv = %v", got)
	}
}
