package server

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"photometa-api/internal/config"
	"photometa-api/internal/handlers"
	"photometa-api/internal/logger"
	"photometa-api/internal/router"
	"photometa-api/internal/services"
	"photometa-api/migrations"
)

// Services holds all initialized services for the application
type Services struct {
	Store     services.Store
	Locations *services.CacheService
	Files     services.FileSource
	Metadata  *services.MetadataService
}

// Close releases the store and stops background cleanup.
func (s *Services) Close() error {
	s.Locations.Close()
	return s.Store.Close()
}

// InitServices initializes all application services based on configuration.
func InitServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	log := logger.Component("server")

	opts := clientOptions(cfg)

	store, err := openStore(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	files, err := openFiles(ctx, cfg, opts)
	if err != nil {
		store.Close()
		return nil, err
	}

	locations := services.NewCacheService(store, cfg.LocationCacheTTL, cfg.CacheCleanupInterval)

	// A nil provider disables geocoding.
	var provider services.Geocoder
	if cfg.GeocodingAPIKey != "" {
		provider = services.NewGoogleGeocoder(cfg.GeocodingAPIKey, cfg.GeocodingBaseURL, cfg.GeocodingTimeout, cfg.GeocodingRateLimit)
	} else {
		log.Warn("GOOGLE_GEOCODING_API_KEY not set, locations will not be resolved")
	}
	geocoder := services.NewGeocodingService(provider, locations)

	resolver := services.NewResolver(store, files, cfg.PublicBaseURL, cfg.StorageMarker)
	metadata := services.NewMetadataService(resolver, files, geocoder, cfg.IOConcurrency)

	log.WithField("store", cfg.SubjectStore).WithField("storage", cfg.StorageBackend).Info("Services initialized")

	return &Services{
		Store:     store,
		Locations: locations,
		Files:     files,
		Metadata:  metadata,
	}, nil
}

// CreateHandler creates an HTTP handler with all middleware applied
func CreateHandler(svcs *Services, cfg *config.Config) http.Handler {
	h := handlers.New(svcs.Metadata, svcs.Store, svcs.Locations)

	return router.Setup(h, router.Options{
		APIKeys:        cfg.APIKeys,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
}

// clientOptions returns the Google client credentials, or none when
// application default credentials should be used.
func clientOptions(cfg *config.Config) []option.ClientOption {
	if !cfg.UsesFirebaseCredentials() {
		return nil
	}
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsJSON != "" {
		// Use JSON credentials from environment variable (preferred for Vercel)
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	} else if cfg.FirebaseCredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	}
	return opts
}

// OpenStore opens the configured subject store. Exported for the CLIs.
func OpenStore(ctx context.Context, cfg *config.Config) (services.Store, error) {
	return openStore(ctx, cfg, clientOptions(cfg))
}

// OpenFiles opens the configured file source. Exported for the CLIs.
func OpenFiles(ctx context.Context, cfg *config.Config) (services.FileSource, error) {
	return openFiles(ctx, cfg, clientOptions(cfg))
}

func openStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (services.Store, error) {
	switch cfg.SubjectStore {
	case config.StoreMySQL:
		if cfg.MySQLAutoMigrate {
			if err := migrations.Up(cfg.MySQLDSN); err != nil {
				return nil, err
			}
		}
		db, err := services.ConnectMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return services.NewMySQLStore(db), nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		return services.NewFirestoreService(client, cfg.FirestoreCollection), nil

	case config.StoreMemory:
		logger.Component("server").Warn("Using in-memory subject store, records are lost on restart")
		return services.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown subject store %q", cfg.SubjectStore)
}

func openFiles(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (services.FileSource, error) {
	switch cfg.StorageBackend {
	case config.StorageGCS:
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return services.NewStorageService(client, cfg.GCSBucketName, cfg.GCSPrefix), nil

	case config.StorageLocal:
		return services.NewLocalFileSource(cfg.StorageRoot), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
