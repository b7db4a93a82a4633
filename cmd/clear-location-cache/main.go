package main

import (
	"context"
	"errors"
	"flag"

	"photometa-api/internal/config"
	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
	"photometa-api/internal/server"
)

func main() {
	subjectID := flag.String("subject", "", "Clear only this subject's cached location")
	dryRun := flag.Bool("dry-run", false, "Report what would be cleared without deleting")
	flag.Parse()

	log := logger.Component("clear-location-cache")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close()

	if *subjectID != "" {
		place, err := store.GetLocation(ctx, *subjectID)
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WithField("subject_id", *subjectID).Info("No cached location")
			return
		}
		if err != nil {
			log.WithError(err).Fatal("Failed to read location")
		}
		if *dryRun {
			log.WithField("subject_id", *subjectID).WithField("location", place).Info("[DRY] Would clear location")
			return
		}
		if err := store.ClearLocation(ctx, *subjectID); err != nil {
			log.WithError(err).Fatal("Failed to clear location")
		}
		log.WithField("subject_id", *subjectID).WithField("location", place).Info("Cleared location")
		return
	}

	if *dryRun {
		subjects, err := store.ListSubjects(ctx)
		if err != nil {
			log.WithError(err).Fatal("Failed to list subjects")
		}
		n := 0
		for _, s := range subjects {
			if _, err := store.GetLocation(ctx, s.ID); err == nil {
				n++
			}
		}
		log.WithField("cached", n).Info("[DRY] Would clear cached locations")
		return
	}

	n, err := store.ClearAllLocations(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to clear locations")
	}
	log.WithField("cleared", n).Info("Cleared cached locations")
}
