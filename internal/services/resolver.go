package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
	"photometa-api/internal/models"
)

// Matches a -WIDTHxHEIGHT resize suffix before the extension.
var resizeSuffix = regexp.MustCompile(`-\d+x\d+(\.[^./]+)$`)

// Resolver turns image URLs into files, trying in order: the subject stored
// at the original (unresized) URL, subjects whose path matches the file
// name, then the URL mapped directly onto storage.
type Resolver struct {
	subjects      SubjectStore
	files         FileSource
	publicBaseURL string
	marker        string
	log           *logrus.Entry
}

func NewResolver(subjects SubjectStore, files FileSource, publicBaseURL, marker string) *Resolver {
	if marker == "" {
		marker = "/uploads/"
	}
	return &Resolver{
		subjects:      subjects,
		files:         files,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		marker:        marker,
		log:           logger.Component("resolver"),
	}
}

// Resolve finds the file behind ref. A reference that matches no file is
// not an error: the result has Exists == false.
func (r *Resolver) Resolve(ctx context.Context, ref models.ImageReference) (models.ResolvedFile, error) {
	imageURL := normalizeReference(string(ref))
	if imageURL == "" {
		return models.ResolvedFile{}, fmt.Errorf("%w: empty image reference", apperrors.ErrInvalidInput)
	}
	originalURL := resizeSuffix.ReplaceAllString(imageURL, "$1")

	subject, err := r.findSubject(ctx, originalURL)
	switch {
	case err == nil:
		p := r.files.Path(subject.RelativePath)
		return models.ResolvedFile{
			Path:    p,
			Subject: subject,
			Exists:  r.files.Exists(ctx, p),
		}, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		r.log.WithError(err).WithField("url", originalURL).Warn("Subject lookup failed, falling back to storage path")
	}

	r.log.WithField("url", imageURL).Debug("No subject found, mapping URL onto storage")

	var first string
	for _, rel := range r.storageCandidates(imageURL) {
		p := r.files.Path(rel)
		if p == "" {
			continue
		}
		if first == "" {
			first = p
		}
		if r.files.Exists(ctx, p) {
			return models.ResolvedFile{Path: p, Exists: true}, nil
		}
	}
	return models.ResolvedFile{Path: first, Exists: false}, nil
}

// findSubject looks the subject up by its exact relative path, then by the
// file name patterns in priority order.
func (r *Resolver) findSubject(ctx context.Context, originalURL string) (*models.Subject, error) {
	if rel, ok := r.relativeToBase(originalURL); ok {
		subject, err := r.subjects.FindByRelativePath(ctx, rel)
		if err == nil {
			return subject, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	for _, pattern := range fileNamePatterns(urlPath(originalURL)) {
		subject, err := r.subjects.FindFirstMatching(ctx, pattern)
		if err == nil {
			r.log.WithFields(logrus.Fields{
				"pattern":    pattern.String(),
				"subject_id": subject.ID,
			}).Debug("Subject matched by file name")
			return subject, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrNotFound
}

// fileNamePatterns returns the search patterns for a file name:
// the exact name, its -scaled variant, then any name sharing the stem.
func fileNamePatterns(p string) []PathPattern {
	filename := path.Base(p)
	if filename == "" || filename == "." || filename == "/" {
		return nil
	}
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if ext == "" || stem == "" {
		return []PathPattern{{filename}}
	}
	return []PathPattern{
		{filename},
		{stem + "-scaled" + ext},
		{stem, ext},
	}
}

// storageCandidates maps the URL onto storage-relative paths: first by
// replacing the public base URL, then by taking whatever follows the marker.
func (r *Resolver) storageCandidates(imageURL string) []string {
	var out []string
	if rel, ok := r.relativeToBase(imageURL); ok {
		out = append(out, rel)
	}
	p := urlPath(imageURL)
	if idx := strings.Index(p, r.marker); idx >= 0 {
		if rel := p[idx+len(r.marker):]; rel != "" {
			out = append(out, rel)
		}
	}
	return out
}

// relativeToBase strips the public base URL, ignoring the scheme.
func (r *Resolver) relativeToBase(u string) (string, bool) {
	if r.publicBaseURL == "" {
		return "", false
	}
	base := stripScheme(r.publicBaseURL) + "/"
	rest := stripScheme(stripQuery(u))
	if !strings.HasPrefix(rest, base) {
		return "", false
	}
	rel := unescape(strings.TrimPrefix(rest, base))
	return rel, rel != ""
}

func normalizeReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return "http:" + ref
	}
	return ref
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func stripScheme(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[i+1:]
	}
	return u
}

// urlPath returns the unescaped path part of a URL or plain path.
func urlPath(u string) string {
	u = stripQuery(u)
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		return parsed.Path
	}
	return unescape(u)
}

func unescape(p string) string {
	if s, err := url.PathUnescape(p); err == nil {
		return s
	}
	return p
}
