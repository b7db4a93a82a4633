package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"photometa-api/internal/config"
	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
	"photometa-api/internal/models"
	"photometa-api/internal/server"
	"photometa-api/internal/services"
)

type stats struct {
	warmed, cached, noGPS, missing, errors atomic.Int64
}

// processSubject runs the pipeline for one subject so its location lands in
// the cache.
func processSubject(ctx context.Context, log *logrus.Entry, svcs *server.Services, subject *models.Subject, onlyUncached, dryRun bool, st *stats) {
	entry := log.WithFields(logrus.Fields{"subject_id": subject.ID, "path": subject.RelativePath})

	if onlyUncached {
		if _, err := svcs.Store.GetLocation(ctx, subject.ID); err == nil {
			st.cached.Add(1)
			return
		}
	}

	result, err := svcs.Metadata.SubjectMetadata(ctx, subject, !dryRun)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		entry.Warn("File missing")
		st.missing.Add(1)
		return
	case err != nil:
		entry.WithError(err).Error("Pipeline failed")
		st.errors.Add(1)
		return
	}

	if !services.HasGPS(result) {
		st.noGPS.Add(1)
		return
	}
	if dryRun {
		entry.WithField("gps", *result.Metadata.GPSCoordinates).Info("[DRY] Would resolve location")
		st.warmed.Add(1)
		return
	}
	if result.Metadata.Location == nil {
		entry.Warn("No location resolved")
		st.errors.Add(1)
		return
	}
	entry.WithField("location", *result.Metadata.Location).Info("Location cached")
	st.warmed.Add(1)
}

func main() {
	concurrency := flag.Int("concurrency", 4, "Subjects processed in parallel")
	onlyUncached := flag.Bool("only-uncached", true, "Skip subjects that already have a cached location")
	dryRun := flag.Bool("dry-run", false, "Decode files and report GPS subjects without calling the geocoder")
	flag.Parse()

	log := logger.Component("warm-locations")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	if *dryRun {
		log.Info("DRY RUN - no geocoder calls, no cache writes")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := server.InitServices(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	defer svcs.Close()

	subjects, err := svcs.Store.ListSubjects(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to list subjects")
	}
	log.WithField("subjects", len(subjects)).Info("Warming locations")

	var st stats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*concurrency, 1))
	for _, subject := range subjects {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			processSubject(gctx, log, svcs, subject, *onlyUncached, *dryRun, &st)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Interrupted")
	}

	log.WithFields(logrus.Fields{
		"warmed":  st.warmed.Load(),
		"cached":  st.cached.Load(),
		"no_gps":  st.noGPS.Load(),
		"missing": st.missing.Load(),
		"errors":  st.errors.Load(),
	}).Info("Done")
}
