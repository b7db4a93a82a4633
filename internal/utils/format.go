package utils

import (
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"
)

// DateTakenLayout is the display format of date_taken.
const DateTakenLayout = "January 2, 2006 3:04 PM"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatDateTaken converts an EXIF date string ("2006:01:02 15:04:05") to
// "January 2, 2006 3:04 PM". ok is false when the string does not parse.
func FormatDateTaken(raw string) (string, bool) {
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))

	// Try multiple layouts in order of likelihood
	layouts := []string{
		"2006:01:02 15:04:05", // EXIF
		"2006-01-02 15:04:05", // written by some editors
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateTakenLayout), true
		}
	}
	return "", false
}

// FormatFileSize renders a byte count with binary multiples, e.g. "3 MB".
func FormatFileSize(size int64) string {
	return units.CustomSize("%.0f %s", float64(size), 1024.0, sizeUnits)
}

func FormatPixelSize(width, height int) string {
	return fmt.Sprintf("%d × %d pixels", width, height)
}

// FormatLensSpecification renders a four-value lens range
// (min focal, max focal, min f-number at min focal, min f-number at max focal)
// as e.g. "24-70mm f/2.8-4". Unknown values are stored as 0/0.
func FormatLensSpecification(spec []Rational) (string, bool) {
	if len(spec) < 2 {
		return "", false
	}
	value := func(i int) (float64, bool) {
		if i >= len(spec) {
			return 0, false
		}
		v, ok := spec[i].Float()
		return v, ok && v > 0
	}

	minFocal, ok := value(0)
	if !ok {
		return "", false
	}
	focal := FormatDecimal(Round(minFocal, 1))
	if maxFocal, ok := value(1); ok && Round(maxFocal, 1) != Round(minFocal, 1) {
		focal += "-" + FormatDecimal(Round(maxFocal, 1))
	}
	focal += "mm"

	minAperture, ok := value(2)
	if !ok {
		return focal, true
	}
	aperture := "f/" + FormatDecimal(Round(minAperture, 1))
	if maxAperture, ok := value(3); ok && Round(maxAperture, 1) != Round(minAperture, 1) {
		aperture += "-" + FormatDecimal(Round(maxAperture, 1))
	}
	return focal + " " + aperture, true
}
