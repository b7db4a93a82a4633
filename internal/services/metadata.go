package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
	"photometa-api/internal/models"
	"photometa-api/internal/utils"
)

const defaultIOConcurrency = 8

// MetadataService runs the full lookup for an image reference: resolve the
// file, decode its tags, normalise them and attach a place name.
type MetadataService struct {
	resolver *Resolver
	files    FileSource
	decoder  *utils.TagDecoder
	geocoder *GeocodingService
	io       *semaphore.Weighted
	log      *logrus.Entry
}

func NewMetadataService(resolver *Resolver, files FileSource, geocoder *GeocodingService, ioConcurrency int64) *MetadataService {
	if ioConcurrency <= 0 {
		ioConcurrency = defaultIOConcurrency
	}
	return &MetadataService{
		resolver: resolver,
		files:    files,
		decoder:  utils.NewTagDecoder(files),
		geocoder: geocoder,
		io:       semaphore.NewWeighted(ioConcurrency),
		log:      logger.Component("metadata"),
	}
}

// GetMetadata returns the metadata for ref. ErrNotFound is the only failure
// besides invalid input and cancellation; everything else degrades to
// missing fields.
func (s *MetadataService) GetMetadata(ctx context.Context, ref models.ImageReference) (*models.MetadataResult, error) {
	resolved, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !resolved.Exists {
		return nil, fmt.Errorf("%w: no file for %s", apperrors.ErrNotFound, ref)
	}
	return s.build(ctx, resolved, true)
}

// SubjectMetadata runs the pipeline for a stored subject. With geocode false
// the provider and the location cache are left alone.
func (s *MetadataService) SubjectMetadata(ctx context.Context, subject *models.Subject, geocode bool) (*models.MetadataResult, error) {
	if subject == nil {
		return nil, apperrors.ErrInvalidInput
	}
	p := s.files.Path(subject.RelativePath)
	if !s.files.Exists(ctx, p) {
		return nil, fmt.Errorf("%w: subject %s file %s", apperrors.ErrNotFound, subject.ID, subject.RelativePath)
	}
	return s.build(ctx, models.ResolvedFile{Path: p, Subject: subject, Exists: true}, geocode)
}

// HasGPS reports whether the result carries decoded coordinates.
func HasGPS(result *models.MetadataResult) bool {
	return result != nil && result.Metadata.GPSCoordinates != nil
}

func (s *MetadataService) build(ctx context.Context, resolved models.ResolvedFile, geocode bool) (*models.MetadataResult, error) {
	report, decodeErr, facts, err := s.read(ctx, resolved.Path)
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"path":       resolved.Path,
		"subject_id": resolved.SubjectID(),
	})
	switch {
	case decodeErr != nil:
		entry.WithError(decodeErr).Warn("Tag decode failed, continuing with file facts")
	case report.Skipped != nil:
		entry.WithError(report.Skipped).Debug("Tag decode skipped")
	case report.Partial != nil:
		entry.WithError(report.Partial).Debug("Tags decoded with errors")
	}

	md := Normalize(report.Tags, facts, resolved.Subject)

	if geocode {
		if point, ok := GPSDecimal(report.Tags); ok {
			if name, ok := s.geocoder.Resolve(ctx, point.Lat, point.Lon, resolved.SubjectID()); ok {
				md.Location = models.StringPtr(name)
			}
		}
	}

	return &models.MetadataResult{
		Metadata: md,
		Debug: models.Diagnostics{
			FileExtension:     report.Extension,
			IsSupportedFormat: report.Supported,
			DecoderRan:        report.Attempted,
			DecodeSuccess:     report.Attempted && decodeErr == nil,
			TagsFound:         len(report.Tags),
			UsedOriginal:      report.UsedOriginal,
		},
	}, nil
}

// read decodes tags and file facts while holding one I/O permit. err is only
// set when no permit could be acquired.
func (s *MetadataService) read(ctx context.Context, p string) (report utils.DecodeReport, decodeErr error, facts models.FileFacts, err error) {
	if err := s.io.Acquire(ctx, 1); err != nil {
		return report, nil, facts, err
	}
	defer s.io.Release(1)

	report, decodeErr = s.decoder.Decode(ctx, p)
	facts = s.fileFacts(ctx, p, report.Extension)
	return report, decodeErr, facts, nil
}

// fileFacts reads the size and pixel dimensions of the file. Either may be
// missing.
func (s *MetadataService) fileFacts(ctx context.Context, p, ext string) models.FileFacts {
	var facts models.FileFacts

	size, err := s.files.Size(ctx, p)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.WithError(err).WithField("path", p).Warn("Failed to stat file")
		}
		return facts
	}
	facts.Size = size

	rc, err := s.files.Open(ctx, p)
	if err != nil {
		s.log.WithError(err).WithField("path", p).Warn("Failed to open file")
		return facts
	}
	defer rc.Close()

	w, h, err := utils.ReadDimensions(rc, ext)
	if err != nil {
		s.log.WithError(err).WithField("path", p).Debug("No pixel dimensions")
		return facts
	}
	facts.Width, facts.Height, facts.HasDimensions = w, h, true
	return facts
}
