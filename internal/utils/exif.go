package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "photometa-api/internal/errors"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

func init() {
	exif.RegisterParsers(extraFieldsParser{})
	exif.RegisterParsers(mknote.All...)
}

// Extensions whose files carry a TIFF tag container.
var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"tif":  true,
	"tiff": true,
}

// FileReader is the read side of a file source.
type FileReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) bool
}

// DecodeReport is the outcome of one decode attempt.
type DecodeReport struct {
	Tags         RawTagSet
	Path         string // file actually read
	Extension    string
	Supported    bool
	Attempted    bool
	UsedOriginal bool
	// Partial is set when the container decoded but a sub-directory or
	// maker note did not.
	Partial error
	// Skipped wraps ErrUnsupportedFormat when the extension has no tag
	// container to read.
	Skipped error
}

// FileExtension returns the lower-cased extension without the dot.
func FileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsSupportedFormat reports whether files with this extension are decoded.
func IsSupportedFormat(ext string) bool {
	return supportedExtensions[ext]
}

// TagDecoder reads EXIF tags from files of a FileReader.
type TagDecoder struct {
	files FileReader
}

func NewTagDecoder(files FileReader) *TagDecoder {
	return &TagDecoder{files: files}
}

// Decode reads the tag container of the file at path. Unsupported formats
// yield an empty set, no error and a Skipped reason. A container that cannot be decoded yields
// an empty set and an error wrapping ErrDecodeFailure.
func (d *TagDecoder) Decode(ctx context.Context, path string) (report DecodeReport, err error) {
	report = DecodeReport{
		Tags:      RawTagSet{},
		Path:      path,
		Extension: FileExtension(path),
	}
	report.Supported = IsSupportedFormat(report.Extension)
	if !report.Supported {
		report.Skipped = fmt.Errorf("%w: .%s", apperrors.ErrUnsupportedFormat, report.Extension)
		return report, nil
	}

	// Scaled derivatives may have lost their tags; prefer the original.
	if strings.Contains(path, "-scaled.") {
		original := strings.ReplaceAll(path, "-scaled.", ".")
		if d.files.Exists(ctx, original) {
			report.Path = original
			report.UsedOriginal = true
		}
	}

	report.Attempted = true
	tags, partial, err := d.decodeFile(ctx, report.Path)
	if err != nil {
		return report, err
	}
	report.Tags = tags
	report.Partial = partial
	return report, nil
}

func (d *TagDecoder) decodeFile(ctx context.Context, path string) (tags RawTagSet, partial error, err error) {
	rc, err := d.files.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrDecodeFailure, path, err)
	}
	defer rc.Close()

	// goexif indexes into maker notes without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			tags, partial = nil, nil
			err = fmt.Errorf("%w: %s: %v", apperrors.ErrDecodeFailure, path, r)
		}
	}()

	x, decodeErr := exif.Decode(rc)
	if x == nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", apperrors.ErrDecodeFailure, path, decodeErr)
	}

	collector := tagCollector{}
	if err := x.Walk(collector); err != nil {
		return nil, nil, fmt.Errorf("%w: walk %s: %v", apperrors.ErrDecodeFailure, path, err)
	}
	return RawTagSet(collector), decodeErr, nil
}

// tagCollector keeps the known tags of a walk.
type tagCollector RawTagSet

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	id, ok := knownFields[name]
	if !ok {
		return nil
	}
	if v, ok := tagValue(tag); ok {
		c[id] = v
	}
	return nil
}

// extraExifFields are Exif sub-IFD tags that goexif does not name.
var extraExifFields = map[uint16]exif.FieldName{
	0x8831: standardOutputSensitivity,
	0xA432: lensSpecification,
}

// extraFieldsParser loads extraExifFields from the Exif sub-IFD. It never fails
// the decode.
type extraFieldsParser struct{}

func (extraFieldsParser) Parse(x *exif.Exif) error {
	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil
	}

	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	x.LoadTags(dir, extraExifFields, false)
	return nil
}
