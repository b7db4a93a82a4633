package handler

import (
	"context"
	"net/http"
	"sync"

	"photometa-api/internal/config"
	"photometa-api/internal/logger"
	"photometa-api/internal/server"
)

var (
	handler     http.Handler
	mu          sync.Mutex
	initErr     error
	initialized bool
)

// initHandler initializes the HTTP handler once and reuses it across invocations.
// A failed initialization is remembered and returned to every later request.
//
// Note: store clients are not explicitly closed as Vercel's serverless
// runtime handles resource cleanup on function termination.
func initHandler() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return initErr
	}

	log := logger.Component("vercel")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		initErr = err
		initialized = true
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	svcs, err := server.InitServices(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Error("Failed to initialize services")
		initErr = err
		initialized = true
		return err
	}

	handler = server.CreateHandler(svcs, cfg)
	initialized = true
	initErr = nil

	log.Info("Handler initialized successfully")
	return nil
}

// Handler is the Vercel serverless function entry point
func Handler(w http.ResponseWriter, r *http.Request) {
	if err := initHandler(); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
