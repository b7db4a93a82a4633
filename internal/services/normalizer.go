package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"photometa-api/internal/models"
	"photometa-api/internal/utils"
)

// Normalize builds the display record from decoded tags, file facts and the
// subject's descriptive text. Every field is derived independently.
func Normalize(raw utils.RawTagSet, facts models.FileFacts, subject *models.Subject) models.NormalizedMetadata {
	var md models.NormalizedMetadata

	if subject != nil {
		md.Title = nonEmpty(subject.Title)
		md.Caption = nonEmpty(subject.Caption)
		md.AltText = nonEmpty(subject.AltText)
	}

	if facts.HasDimensions {
		md.PixelSize = models.StringPtr(utils.FormatPixelSize(facts.Width, facts.Height))
	}
	if facts.Size > 0 {
		md.FileSize = models.StringPtr(utils.FormatFileSize(facts.Size))
	}

	if len(raw) == 0 {
		return md
	}

	md.Camera = camera(raw)
	md.Lens = lens(raw)
	md.Aperture = aperture(raw)
	md.Shutter = shutter(raw)
	md.ISO = iso(raw)
	md.FocalLength = focalLength(raw)
	md.FocalLength35mm = focalLength35mm(raw)
	md.DateTaken = dateTaken(raw)
	md.Flash = coded(raw, utils.TagFlash, utils.FlashDescription)
	md.WhiteBalance = coded(raw, utils.TagWhiteBalance, utils.WhiteBalance)
	md.ExposureMode = coded(raw, utils.TagExposureMode, utils.ExposureMode)
	md.MeteringMode = coded(raw, utils.TagMeteringMode, utils.MeteringMode)
	md.ColorSpace = coded(raw, utils.TagColorSpace, utils.ColorSpace)
	if s, ok := raw.String(utils.TagSoftware); ok {
		md.Software = models.StringPtr(s)
	}
	if point, ok := GPSDecimal(raw); ok {
		md.GPSCoordinates = models.StringPtr(fmt.Sprintf("%.6f, %.6f", point.Lat, point.Lon))
	}

	return md
}

// GPSDecimal converts the GPS latitude and longitude tags to decimal degrees.
// Both must carry at least three components.
func GPSDecimal(raw utils.RawTagSet) (models.GeoPoint, bool) {
	latDMS, ok := raw.Rationals(utils.TagGPSLatitude)
	if !ok {
		return models.GeoPoint{}, false
	}
	lonDMS, ok := raw.Rationals(utils.TagGPSLongitude)
	if !ok {
		return models.GeoPoint{}, false
	}
	latRef, _ := raw.String(utils.TagGPSLatitudeRef)
	lonRef, _ := raw.String(utils.TagGPSLongitudeRef)

	lat, ok := utils.DMSToDecimal(latDMS, strings.TrimSpace(latRef))
	if !ok {
		return models.GeoPoint{}, false
	}
	lon, ok := utils.DMSToDecimal(lonDMS, strings.TrimSpace(lonRef))
	if !ok {
		return models.GeoPoint{}, false
	}
	return models.GeoPoint{Lat: lat, Lon: lon}, true
}

func camera(raw utils.RawTagSet) *string {
	maker, okMake := raw.String(utils.TagMake)
	model, okModel := raw.String(utils.TagModel)
	if !okMake || !okModel {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(maker + " " + model))
}

// lens prefers the LensModel string (0xA434), then the LensSpecification
// range, then the maker-note lens, then LensMake.
func lens(raw utils.RawTagSet) *string {
	if s, ok := raw.String(utils.TagLensModel); ok {
		return models.StringPtr(s)
	}
	if spec, ok := raw.Rationals(utils.TagLensSpecification); ok {
		if s, ok := utils.FormatLensSpecification(spec); ok {
			return models.StringPtr(s)
		}
	}
	if s, ok := raw.String(utils.TagVendorLens); ok {
		return models.StringPtr(s)
	}
	if spec, ok := raw.Rationals(utils.TagVendorLens); ok {
		if s, ok := utils.FormatLensSpecification(spec); ok {
			return models.StringPtr(s)
		}
	}
	if maker, ok := raw.String(utils.TagLensMake); ok {
		return models.StringPtr(maker)
	}
	return nil
}

// aperture prefers FNumber, then ApertureValue and MaxApertureValue (both
// APEX). A tag with a zero denominator counts as missing.
func aperture(raw utils.RawTagSet) *string {
	if f, ok := rationalFloat(raw, utils.TagFNumber); ok {
		return fNumber(f)
	}
	for _, id := range []utils.TagID{utils.TagApertureValue, utils.TagMaxApertureValue} {
		if av, ok := rationalFloat(raw, id); ok {
			return fNumber(utils.ApertureFromAPEX(av))
		}
	}
	return nil
}

func fNumber(f float64) *string {
	return models.StringPtr("f/" + utils.FormatDecimal(utils.Round(f, 1)))
}

// shutter renders ExposureTime, falling back to the APEX ShutterSpeedValue.
func shutter(raw utils.RawTagSet) *string {
	if raw.Has(utils.TagExposureTime) {
		if s, ok := raw.String(utils.TagExposureTime); ok {
			return models.StringPtr(s + "s")
		}
		r, ok := raw.Rational(utils.TagExposureTime)
		if !ok {
			return nil
		}
		d, ok := r.Float()
		if !ok {
			return nil
		}
		if d >= 1 {
			return models.StringPtr(utils.FormatDecimal(utils.Round(d, 1)) + "s")
		}
		return models.StringPtr(r.String() + "s")
	}

	if tv, ok := rationalFloat(raw, utils.TagShutterSpeedValue); ok {
		seconds := utils.ExposureFromAPEX(tv)
		if seconds < 1 {
			return models.StringPtr("1/" + utils.FormatDecimal(math.Round(1/seconds)) + "s")
		}
		return models.StringPtr(utils.FormatDecimal(utils.Round(seconds, 1)) + "s")
	}
	return nil
}

func iso(raw utils.RawTagSet) *string {
	for _, id := range []utils.TagID{utils.TagISOSpeedRatings, utils.TagStandardOutputSensitivity} {
		if n, ok := raw.Int(id); ok {
			return models.StringPtr("ISO " + strconv.FormatInt(n, 10))
		}
	}
	return nil
}

func focalLength(raw utils.RawTagSet) *string {
	if n, ok := raw.Int(utils.TagFocalLength); ok {
		return models.StringPtr(strconv.FormatInt(n, 10) + "mm")
	}
	if f, ok := rationalFloat(raw, utils.TagFocalLength); ok {
		return models.StringPtr(utils.FormatDecimal(math.Round(f)) + "mm")
	}
	return nil
}

func focalLength35mm(raw utils.RawTagSet) *string {
	if n, ok := raw.Int(utils.TagFocalLengthIn35mmFilm); ok {
		return models.StringPtr(strconv.FormatInt(n, 10) + "mm (35mm equiv.)")
	}
	return nil
}

// dateTaken formats the first present of DateTimeOriginal, DateTime and
// DateTimeDigitized. If that one does not parse the field is absent.
func dateTaken(raw utils.RawTagSet) *string {
	for _, id := range []utils.TagID{utils.TagDateTimeOriginal, utils.TagDateTime, utils.TagDateTimeDigitized} {
		if !raw.Has(id) {
			continue
		}
		s, _ := raw.String(id)
		if formatted, ok := utils.FormatDateTaken(s); ok {
			return models.StringPtr(formatted)
		}
		return nil
	}
	return nil
}

func coded(raw utils.RawTagSet, id utils.TagID, table func(int64) string) *string {
	if !raw.Has(id) {
		return nil
	}
	code, ok := raw.Int(id)
	if !ok {
		return models.StringPtr(table(-1))
	}
	return models.StringPtr(table(code))
}

func rationalFloat(raw utils.RawTagSet, id utils.TagID) (float64, bool) {
	r, ok := raw.Rational(id)
	if !ok {
		return 0, false
	}
	return r.Float()
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
