package models

import "time"

// ImageReference is a caller-supplied image URL. It may carry a -WxH resize
// suffix or be protocol-relative.
type ImageReference string

// Subject is a media record: one uploaded original and its descriptive text.
type Subject struct {
	ID           string    `firestore:"id,omitempty" db:"id" json:"id"`
	RelativePath string    `firestore:"relativePath" db:"relative_path" json:"relativePath"`
	Title        string    `firestore:"title,omitempty" db:"title" json:"title,omitempty"`
	Caption      string    `firestore:"caption,omitempty" db:"caption" json:"caption,omitempty"`
	AltText      string    `firestore:"altText,omitempty" db:"alt_text" json:"altText,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty" db:"created_at" json:"createdAt,omitempty"`
}

// ResolvedFile is the outcome of resolving an ImageReference.
type ResolvedFile struct {
	Path    string
	Subject *Subject
	Exists  bool
}

// SubjectID returns the matched subject id, or "" when the file was found
// by path alone.
func (r ResolvedFile) SubjectID() string {
	if r.Subject == nil {
		return ""
	}
	return r.Subject.ID
}

// FileFacts are read from the file itself, independent of tag decoding.
type FileFacts struct {
	Size          int64
	Width         int
	Height        int
	HasDimensions bool
}

type GeoPoint struct {
	Lat float64
	Lon float64
}

// LocationEntry is a cached place name for one subject.
type LocationEntry struct {
	SubjectID string    `firestore:"subjectId" db:"subject_id"`
	PlaceName string    `firestore:"placeName" db:"place_name"`
	UpdatedAt time.Time `firestore:"updatedAt" db:"updated_at"`
}
