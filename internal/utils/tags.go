package utils

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

// TagID enumerates the tags the normalizer understands. Everything else the
// decoder sees is dropped.
type TagID int

const (
	TagMake TagID = iota + 1
	TagModel
	TagVendorLens
	TagLensModel
	TagLensSpecification
	TagLensMake
	TagApertureValue
	TagFNumber
	TagMaxApertureValue
	TagExposureTime
	TagShutterSpeedValue
	TagISOSpeedRatings
	TagStandardOutputSensitivity
	TagFocalLength
	TagFocalLengthIn35mmFilm
	TagDateTimeOriginal
	TagDateTime
	TagDateTimeDigitized
	TagFlash
	TagWhiteBalance
	TagExposureMode
	TagMeteringMode
	TagColorSpace
	TagSoftware
	TagGPSLatitude
	TagGPSLatitudeRef
	TagGPSLongitude
	TagGPSLongitudeRef
)

const (
	lensSpecification         exif.FieldName = "LensSpecification"
	standardOutputSensitivity exif.FieldName = "StandardOutputSensitivity"
)

// knownFields maps goexif field names onto TagIDs. goexif names 0xA434
// LensModel and 0x8827 (PhotographicSensitivity since Exif 2.3)
// ISOSpeedRatings. Nikon's maker-note lens range is mknote.Lens.
var knownFields = map[exif.FieldName]TagID{
	exif.Make:                  TagMake,
	exif.Model:                 TagModel,
	mknote.Lens:                TagVendorLens,
	exif.LensModel:             TagLensModel,
	lensSpecification:          TagLensSpecification,
	exif.LensMake:              TagLensMake,
	exif.ApertureValue:         TagApertureValue,
	exif.FNumber:               TagFNumber,
	exif.MaxApertureValue:      TagMaxApertureValue,
	exif.ExposureTime:          TagExposureTime,
	exif.ShutterSpeedValue:     TagShutterSpeedValue,
	exif.ISOSpeedRatings:       TagISOSpeedRatings,
	standardOutputSensitivity:  TagStandardOutputSensitivity,
	exif.FocalLength:           TagFocalLength,
	exif.FocalLengthIn35mmFilm: TagFocalLengthIn35mmFilm,
	exif.DateTimeOriginal:      TagDateTimeOriginal,
	exif.DateTime:              TagDateTime,
	exif.DateTimeDigitized:     TagDateTimeDigitized,
	exif.Flash:                 TagFlash,
	exif.WhiteBalance:          TagWhiteBalance,
	exif.ExposureMode:          TagExposureMode,
	exif.MeteringMode:          TagMeteringMode,
	exif.ColorSpace:            TagColorSpace,
	exif.Software:              TagSoftware,
	exif.GPSLatitude:           TagGPSLatitude,
	exif.GPSLatitudeRef:        TagGPSLatitudeRef,
	exif.GPSLongitude:          TagGPSLongitude,
	exif.GPSLongitudeRef:       TagGPSLongitudeRef,
}

// RawTagValue is one of IntValue, RationalValue, RationalArrayValue,
// StringValue or BytesValue.
type RawTagValue interface {
	rawTagValue()
}

type (
	IntValue           int64
	RationalValue      Rational
	RationalArrayValue []Rational
	StringValue        string
	BytesValue         []byte
)

func (IntValue) rawTagValue()           {}
func (RationalValue) rawTagValue()      {}
func (RationalArrayValue) rawTagValue() {}
func (StringValue) rawTagValue()        {}
func (BytesValue) rawTagValue()         {}

// RawTagSet holds the decoded tags of one file.
type RawTagSet map[TagID]RawTagValue

// Has reports whether the tag was present in the file.
func (s RawTagSet) Has(id TagID) bool {
	_, ok := s[id]
	return ok
}

// String returns a string or undefined-bytes tag as text.
func (s RawTagSet) String(id TagID) (string, bool) {
	switch v := s[id].(type) {
	case StringValue:
		return string(v), true
	case BytesValue:
		return string(bytes.TrimRight(v, "\x00 ")), true
	}
	return "", false
}

// Int returns an integer tag.
func (s RawTagSet) Int(id TagID) (int64, bool) {
	v, ok := s[id].(IntValue)
	return int64(v), ok
}

// Rational returns a single rational, or the first element of a rational array.
func (s RawTagSet) Rational(id TagID) (Rational, bool) {
	switch v := s[id].(type) {
	case RationalValue:
		return Rational(v), true
	case RationalArrayValue:
		if len(v) > 0 {
			return v[0], true
		}
	}
	return Rational{}, false
}

// Rationals returns every rational of the tag.
func (s RawTagSet) Rationals(id TagID) ([]Rational, bool) {
	switch v := s[id].(type) {
	case RationalValue:
		return []Rational{Rational(v)}, true
	case RationalArrayValue:
		return v, true
	}
	return nil, false
}

// tagValue converts a goexif tag into a RawTagValue.
func tagValue(tag *tiff.Tag) (RawTagValue, bool) {
	if tag == nil || tag.Count == 0 {
		return nil, false
	}

	switch tag.Format() {
	case tiff.IntVal:
		v, err := tag.Int64(0)
		if err != nil {
			return nil, false
		}
		return IntValue(v), true
	case tiff.RatVal:
		rats := make([]Rational, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, false
			}
			rats = append(rats, Rational{Num: num, Den: den})
		}
		if len(rats) == 1 {
			return RationalValue(rats[0]), true
		}
		return RationalArrayValue(rats), true
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		return StringValue(strings.TrimSpace(s)), true
	case tiff.UndefVal:
		b := make([]byte, len(tag.Val))
		copy(b, tag.Val)
		return BytesValue(b), true
	}
	return nil, false
}
