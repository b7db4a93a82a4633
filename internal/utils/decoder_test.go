package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/testutil"
)

type memFiles map[string][]byte

func (m memFiles) Open(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := m[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memFiles) Exists(_ context.Context, path string) bool {
	_, ok := m[path]
	return ok
}

func TestTagDecoderCanonSample(t *testing.T) {
	files := memFiles{"/uploads/sample.jpg": testutil.CanonSample()}
	report, err := NewTagDecoder(files).Decode(context.Background(), "/uploads/sample.jpg")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if !report.Attempted || !report.Supported {
		t.Fatalf("Decode() report = %+v, want attempted and supported", report)
	}

	if got, _ := report.Tags.String(TagMake); got != "Canon" {
		t.Errorf("Make = %q, want Canon", got)
	}
	if got, _ := report.Tags.String(TagModel); got != "EOS R5" {
		t.Errorf("Model = %q, want EOS R5", got)
	}
	if got, ok := report.Tags.Rational(TagFNumber); !ok || got != (Rational{7, 1}) {
		t.Errorf("FNumber = %v, %v; want 7/1", got, ok)
	}
	if got, ok := report.Tags.Rational(TagExposureTime); !ok || got.String() != "1/250" {
		t.Errorf("ExposureTime = %v, %v; want 1/250", got, ok)
	}
	if got, ok := report.Tags.Int(TagISOSpeedRatings); !ok || got != 400 {
		t.Errorf("ISOSpeedRatings = %v, %v; want 400", got, ok)
	}
}

func TestTagDecoderGPSAndLensSpecification(t *testing.T) {
	data := testutil.JPEG(testutil.TIFF(
		[]testutil.Tag{testutil.ASCII(testutil.TagMake, "Sony")},
		[]testutil.Tag{
			testutil.Rational(testutil.TagLensSpecification,
				[2]uint32{24, 1}, [2]uint32{70, 1}, [2]uint32{28, 10}, [2]uint32{28, 10}),
			testutil.ASCII(testutil.TagLensModel, "FE 24-70mm F2.8 GM"),
		},
		[]testutil.Tag{
			testutil.ASCII(testutil.TagGPSLatitudeRef, "N"),
			testutil.Rational(testutil.TagGPSLatitude, [2]uint32{40, 1}, [2]uint32{26, 1}, [2]uint32{46, 1}),
		},
	))

	report, err := NewTagDecoder(memFiles{"a.jpeg": data}).Decode(context.Background(), "a.jpeg")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}

	spec, ok := report.Tags.Rationals(TagLensSpecification)
	if !ok || len(spec) != 4 {
		t.Fatalf("LensSpecification = %v, %v; want 4 rationals", spec, ok)
	}
	if got, _ := report.Tags.String(TagLensModel); got != "FE 24-70mm F2.8 GM" {
		t.Errorf("LensModel = %q", got)
	}
	lat, ok := report.Tags.Rationals(TagGPSLatitude)
	if !ok || len(lat) != 3 || lat[1] != (Rational{26, 1}) {
		t.Errorf("GPSLatitude = %v, %v", lat, ok)
	}
	if ref, _ := report.Tags.String(TagGPSLatitudeRef); ref != "N" {
		t.Errorf("GPSLatitudeRef = %q, want N", ref)
	}
}

func TestTagDecoderStandardOutputSensitivity(t *testing.T) {
	data := testutil.JPEG(testutil.TIFF(
		[]testutil.Tag{testutil.ASCII(testutil.TagMake, "Sony")},
		[]testutil.Tag{
			testutil.Rational(testutil.TagFNumber, [2]uint32{4, 1}),
			testutil.Long(testutil.TagStandardOutput, 6400),
		},
		nil,
	))

	report, err := NewTagDecoder(memFiles{"b.jpg": data}).Decode(context.Background(), "b.jpg")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if report.Tags.Has(TagISOSpeedRatings) {
		t.Errorf("ISOSpeedRatings unexpectedly present")
	}
	if got, ok := report.Tags.Int(TagStandardOutputSensitivity); !ok || got != 6400 {
		t.Errorf("StandardOutputSensitivity = %v, %v; want 6400", got, ok)
	}
	if report.Skipped != nil {
		t.Errorf("Skipped = %v, want nil for a jpeg", report.Skipped)
	}
}

func TestTagDecoderUnsupportedFormat(t *testing.T) {
	files := memFiles{"photo.webp": []byte("RIFF")}
	report, err := NewTagDecoder(files).Decode(context.Background(), "photo.webp")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if report.Supported || report.Attempted || len(report.Tags) != 0 {
		t.Errorf("Decode() report = %+v, want skipped", report)
	}
	if !errors.Is(report.Skipped, apperrors.ErrUnsupportedFormat) {
		t.Errorf("Decode() Skipped = %v, want ErrUnsupportedFormat", report.Skipped)
	}
	if report.Extension != "webp" {
		t.Errorf("Extension = %q, want webp", report.Extension)
	}
}

func TestTagDecoderCorruptContainer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not an image", data: []byte("definitely not a jpeg")},
		{name: "truncated", data: testutil.CanonSample()[:30]},
		{name: "empty", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := NewTagDecoder(memFiles{"x.jpg": tt.data}).Decode(context.Background(), "x.jpg")
			if !errors.Is(err, apperrors.ErrDecodeFailure) {
				t.Fatalf("Decode() error = %v, want ErrDecodeFailure", err)
			}
			if len(report.Tags) != 0 {
				t.Errorf("Decode() tags = %v, want empty", report.Tags)
			}
		})
	}
}

func TestTagDecoderPrefersOriginalOfScaled(t *testing.T) {
	files := memFiles{
		"/u/photo-scaled.jpg": testutil.JPEG(testutil.TIFF(nil, []testutil.Tag{testutil.Short(testutil.TagISOSpeedRatings, 100)}, nil)),
		"/u/photo.jpg":        testutil.CanonSample(),
	}

	report, err := NewTagDecoder(files).Decode(context.Background(), "/u/photo-scaled.jpg")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if !report.UsedOriginal || report.Path != "/u/photo.jpg" {
		t.Errorf("Decode() read %q (used original %v), want /u/photo.jpg", report.Path, report.UsedOriginal)
	}
	if iso, _ := report.Tags.Int(TagISOSpeedRatings); iso != 400 {
		t.Errorf("ISO = %d, want 400 from the original", iso)
	}

	delete(files, "/u/photo.jpg")
	report, err = NewTagDecoder(files).Decode(context.Background(), "/u/photo-scaled.jpg")
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if report.UsedOriginal {
		t.Error("Decode() used a missing original")
	}
}
