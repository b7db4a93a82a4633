package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/models"
)

// SubjectStore looks up media records. Lookups that match nothing return
// ErrNotFound.
type SubjectStore interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	FindByRelativePath(ctx context.Context, relativePath string) (*models.Subject, error)
	// FindFirstMatching returns the lowest-id subject whose relative path
	// matches pattern.
	FindFirstMatching(ctx context.Context, pattern PathPattern) (*models.Subject, error)
	ListSubjects(ctx context.Context) ([]*models.Subject, error)
	SaveSubject(ctx context.Context, subject *models.Subject) (string, error)
}

// LocationCache maps a subject id to its resolved place name. A miss returns
// ErrNotFound.
type LocationCache interface {
	GetLocation(ctx context.Context, subjectID string) (string, error)
	PutLocation(ctx context.Context, subjectID, placeName string) error
	ClearLocation(ctx context.Context, subjectID string) error
	ClearAllLocations(ctx context.Context) (int, error)
}

// Store is a durable backend holding both subjects and their cached
// locations.
type Store interface {
	SubjectStore
	LocationCache
	Close() error
}

// PathPattern is a LIKE-style pattern over relative paths: each segment is
// literal text preceded by a '%' wildcard, so {"photo", ".jpg"} is
// "%photo%.jpg".
type PathPattern []string

// SQL renders the pattern for a LIKE clause with '\' as the escape character.
func (p PathPattern) SQL() string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('%')
		b.WriteString(escaper.Replace(seg))
	}
	return b.String()
}

// Match reports whether path matches the pattern. The pattern is anchored at
// the end only.
func (p PathPattern) Match(path string) bool {
	if len(p) == 0 {
		return true
	}
	pos := 0
	last := len(p) - 1
	for _, seg := range p[:last] {
		idx := strings.Index(path[pos:], seg)
		if idx < 0 {
			return false
		}
		pos += idx + len(seg)
	}
	tail := p[last]
	return strings.HasSuffix(path, tail) && len(path)-len(tail) >= pos
}

func (p PathPattern) String() string {
	return strings.Join(append([]string{""}, p...), "%")
}

// compareIDs orders numeric ids numerically and everything else lexically.
func compareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// MemoryStore keeps subjects and locations in process. It backs tests and
// single-instance deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	subjects  map[string]*models.Subject
	locations map[string]string
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subjects:  make(map[string]*models.Subject),
		locations: make(map[string]string),
	}
}

func (m *MemoryStore) GetSubject(_ context.Context, id string) (*models.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subjects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) FindByRelativePath(ctx context.Context, relativePath string) (*models.Subject, error) {
	return m.first(func(s *models.Subject) bool { return s.RelativePath == relativePath })
}

func (m *MemoryStore) FindFirstMatching(ctx context.Context, pattern PathPattern) (*models.Subject, error) {
	return m.first(func(s *models.Subject) bool { return pattern.Match(s.RelativePath) })
}

func (m *MemoryStore) first(match func(*models.Subject) bool) (*models.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *models.Subject
	for _, s := range m.subjects {
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
	cp := *best
	return &cp, nil
}

func (m *MemoryStore) ListSubjects(_ context.Context) ([]*models.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return compareIDs(out[i].ID, out[j].ID) < 0 })
	return out, nil
}

// SaveSubject inserts or replaces a subject. Subjects without an id get the
// next sequential one.
func (m *MemoryStore) SaveSubject(_ context.Context, subject *models.Subject) (string, error) {
	if subject == nil || subject.RelativePath == "" {
		return "", apperrors.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *subject
	if cp.ID == "" {
		m.nextID++
		cp.ID = strconv.FormatInt(m.nextID, 10)
	} else if n, err := strconv.ParseInt(cp.ID, 10, 64); err == nil && n > m.nextID {
		m.nextID = n
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.subjects[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MemoryStore) GetLocation(_ context.Context, subjectID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	place, ok := m.locations[subjectID]
	if !ok || place == "" {
		return "", apperrors.ErrNotFound
	}
	return place, nil
}

func (m *MemoryStore) PutLocation(_ context.Context, subjectID, placeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locations[subjectID] = placeName
	return nil
}

func (m *MemoryStore) ClearLocation(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locations, subjectID)
	return nil
}

func (m *MemoryStore) ClearAllLocations(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.locations)
	m.locations = make(map[string]string)
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
