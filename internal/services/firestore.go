package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/models"
)

// subjectDoc is the stored form of a subject. fileName is denormalised so
// lookups by basename can use a range query.
type subjectDoc struct {
	RelativePath string    `firestore:"relativePath"`
	FileName     string    `firestore:"fileName"`
	Title        string    `firestore:"title,omitempty"`
	Caption      string    `firestore:"caption,omitempty"`
	AltText      string    `firestore:"altText,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

func (d subjectDoc) subject(id string) *models.Subject {
	return &models.Subject{
		ID:           id,
		RelativePath: d.RelativePath,
		Title:        d.Title,
		Caption:      d.Caption,
		AltText:      d.AltText,
		CreatedAt:    d.CreatedAt,
	}
}

// FirestoreService stores subjects in one collection and their cached place
// names in a sibling "<collection>_locations" collection keyed by subject id.
type FirestoreService struct {
	client     *firestore.Client
	collection string
	locations  string
}

func NewFirestoreService(client *firestore.Client, collection string) *FirestoreService {
	return &FirestoreService{
		client:     client,
		collection: collection,
		locations:  collection + "_locations",
	}
}

func (fs *FirestoreService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	if id == "" {
		return nil, apperrors.ErrNotFound
	}
	doc, err := fs.client.Collection(fs.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return decodeSubject(doc)
}

func (fs *FirestoreService) FindByRelativePath(ctx context.Context, relativePath string) (*models.Subject, error) {
	q := fs.client.Collection(fs.collection).Where("relativePath", "==", relativePath)
	return fs.lowest(ctx, q, func(*models.Subject) bool { return true })
}

// FindFirstMatching narrows candidates to file names starting with the
// pattern's first segment, then applies the full pattern in process.
func (fs *FirestoreService) FindFirstMatching(ctx context.Context, pattern PathPattern) (*models.Subject, error) {
	if len(pattern) == 0 {
		return nil, apperrors.ErrNotFound
	}
	prefix := pattern[0]
	q := fs.client.Collection(fs.collection).
		Where("fileName", ">=", prefix).
		Where("fileName", "<", prefix+"\uf8ff")
	return fs.lowest(ctx, q, func(s *models.Subject) bool { return pattern.Match(s.RelativePath) })
}

func (fs *FirestoreService) lowest(ctx context.Context, q firestore.Query, match func(*models.Subject) bool) (*models.Subject, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var best *models.Subject
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query subjects: %w", err)
		}
		s, err := decodeSubject(doc)
		if err != nil {
			continue
		}
		if !match(s) {
			continue
		}
		if best == nil || compareIDs(s.ID, best.ID) < 0 {
			best = s
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound
	}
	return best, nil
}

func (fs *FirestoreService) ListSubjects(ctx context.Context) ([]*models.Subject, error) {
	iter := fs.client.Collection(fs.collection).Documents(ctx)
	defer iter.Stop()

	var results []*models.Subject
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate subjects: %w", err)
		}
		s, err := decodeSubject(doc)
		if err != nil {
			// Skip malformed documents
			continue
		}
		results = append(results, s)
	}
	sort.Slice(results, func(i, j int) bool { return compareIDs(results[i].ID, results[j].ID) < 0 })
	return results, nil
}

// SaveSubject creates a document with a generated id, or replaces the one
// named by subject.ID.
func (fs *FirestoreService) SaveSubject(ctx context.Context, subject *models.Subject) (string, error) {
	if subject == nil || subject.RelativePath == "" {
		return "", apperrors.ErrInvalidInput
	}
	doc := subjectDoc{
		RelativePath: subject.RelativePath,
		FileName:     path.Base(subject.RelativePath),
		Title:        subject.Title,
		Caption:      subject.Caption,
		AltText:      subject.AltText,
		CreatedAt:    subject.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if subject.ID == "" {
		ref, _, err := fs.client.Collection(fs.collection).Add(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("failed to create subject: %w", err)
		}
		return ref.ID, nil
	}
	if _, err := fs.client.Collection(fs.collection).Doc(subject.ID).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to update subject: %w", err)
	}
	return subject.ID, nil
}

func (fs *FirestoreService) GetLocation(ctx context.Context, subjectID string) (string, error) {
	if subjectID == "" {
		return "", apperrors.ErrNotFound
	}
	doc, err := fs.client.Collection(fs.locations).Doc(subjectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get location: %w", err)
	}
	var entry models.LocationEntry
	if err := doc.DataTo(&entry); err != nil {
		return "", fmt.Errorf("failed to parse location: %w", err)
	}
	if entry.PlaceName == "" {
		return "", apperrors.ErrNotFound
	}
	return entry.PlaceName, nil
}

func (fs *FirestoreService) PutLocation(ctx context.Context, subjectID, placeName string) error {
	entry := models.LocationEntry{
		SubjectID: subjectID,
		PlaceName: placeName,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := fs.client.Collection(fs.locations).Doc(subjectID).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to store location: %w", err)
	}
	return nil
}

func (fs *FirestoreService) ClearLocation(ctx context.Context, subjectID string) error {
	if _, err := fs.client.Collection(fs.locations).Doc(subjectID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

func (fs *FirestoreService) ClearAllLocations(ctx context.Context) (int, error) {
	iter := fs.client.Collection(fs.locations).DocumentRefs(ctx)

	bw := fs.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to list locations: %w", err)
		}
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to queue delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	cleared := 0
	for _, job := range jobs {
		if _, err := job.Results(); err == nil {
			cleared++
		}
	}
	return cleared, nil
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func decodeSubject(doc *firestore.DocumentSnapshot) (*models.Subject, error) {
	var d subjectDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse subject: %w", err)
	}
	return d.subject(doc.Ref.ID), nil
}
