// Package testutil builds small EXIF fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
)

var le = binary.LittleEndian

// TIFF field types.
const (
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
	typeSRational = 10
)

// Tag is one IFD entry with its little-endian value bytes.
type Tag struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func ASCII(id uint16, s string) Tag {
	b := append([]byte(s), 0)
	return Tag{ID: id, Type: typeASCII, Count: uint32(len(b)), Data: b}
}

func Short(id uint16, v uint16) Tag {
	b := make([]byte, 2)
	le.PutUint16(b, v)
	return Tag{ID: id, Type: typeShort, Count: 1, Data: b}
}

func Long(id uint16, v uint32) Tag {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return Tag{ID: id, Type: typeLong, Count: 1, Data: b}
}

// Rational encodes one or more num/den pairs.
func Rational(id uint16, pairs ...[2]uint32) Tag {
	b := make([]byte, 0, 8*len(pairs))
	for _, p := range pairs {
		b = le.AppendUint32(b, p[0])
		b = le.AppendUint32(b, p[1])
	}
	return Tag{ID: id, Type: typeRational, Count: uint32(len(pairs)), Data: b}
}

func SRational(id uint16, num, den int32) Tag {
	b := make([]byte, 0, 8)
	b = le.AppendUint32(b, uint32(num))
	b = le.AppendUint32(b, uint32(den))
	return Tag{ID: id, Type: typeSRational, Count: 1, Data: b}
}

func Undefined(id uint16, data []byte) Tag {
	return Tag{ID: id, Type: typeUndefined, Count: uint32(len(data)), Data: data}
}

// Tag ids used by the fixtures.
const (
	TagMake              = 0x010F
	TagModel             = 0x0110
	TagSoftware          = 0x0131
	TagDateTime          = 0x0132
	TagExifPointer       = 0x8769
	TagGPSPointer        = 0x8825
	TagExposureTime      = 0x829A
	TagFNumber           = 0x829D
	TagISOSpeedRatings   = 0x8827
	TagStandardOutput    = 0x8831
	TagDateTimeOriginal  = 0x9003
	TagShutterSpeedValue = 0x9201
	TagApertureValue     = 0x9202
	TagMaxApertureValue  = 0x9205
	TagMeteringMode      = 0x9207
	TagFlash             = 0x9209
	TagFocalLength       = 0x920A
	TagColorSpace        = 0xA001
	TagExposureMode      = 0xA402
	TagWhiteBalance      = 0xA403
	TagFocalLength35mm   = 0xA405
	TagLensSpecification = 0xA432
	TagLensMake          = 0xA433
	TagLensModel         = 0xA434
	TagGPSLatitudeRef    = 0x0001
	TagGPSLatitude       = 0x0002
	TagGPSLongitudeRef   = 0x0003
	TagGPSLongitude      = 0x0004
)

func encodeIFD(start uint32, tags []Tag) []byte {
	var head, data bytes.Buffer
	dataStart := start + 2 + 12*uint32(len(tags)) + 4

	binary.Write(&head, le, uint16(len(tags)))
	for _, t := range tags {
		binary.Write(&head, le, t.ID)
		binary.Write(&head, le, t.Type)
		binary.Write(&head, le, t.Count)
		if len(t.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, t.Data)
			head.Write(v)
			continue
		}
		binary.Write(&head, le, dataStart+uint32(data.Len()))
		data.Write(t.Data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	binary.Write(&head, le, uint32(0))

	return append(head.Bytes(), data.Bytes()...)
}

// TIFF builds a little-endian TIFF block. Pointers to the Exif and GPS
// sub-IFDs are added to ifd0 when those are non-empty.
func TIFF(ifd0, exifIFD, gpsIFD []Tag) []byte {
	root := append([]Tag(nil), ifd0...)
	exifAt, gpsAt := -1, -1
	if len(exifIFD) > 0 {
		exifAt = len(root)
		root = append(root, Long(TagExifPointer, 0))
	}
	if len(gpsIFD) > 0 {
		gpsAt = len(root)
		root = append(root, Long(TagGPSPointer, 0))
	}

	const ifd0Start = 8
	exifStart := uint32(ifd0Start + len(encodeIFD(0, root)))
	gpsStart := exifStart
	if len(exifIFD) > 0 {
		gpsStart += uint32(len(encodeIFD(0, exifIFD)))
	}
	if exifAt >= 0 {
		root[exifAt] = Long(TagExifPointer, exifStart)
	}
	if gpsAt >= 0 {
		root[gpsAt] = Long(TagGPSPointer, gpsStart)
	}

	out := []byte{'I', 'I', 0x2A, 0x00}
	out = le.AppendUint32(out, ifd0Start)
	out = append(out, encodeIFD(ifd0Start, root)...)
	if len(exifIFD) > 0 {
		out = append(out, encodeIFD(exifStart, exifIFD)...)
	}
	if len(gpsIFD) > 0 {
		out = append(out, encodeIFD(gpsStart, gpsIFD)...)
	}
	return out
}

// JPEG wraps a TIFF block in an APP1 segment between SOI and EOI markers.
func JPEG(tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, 0xFF, 0xD9)
}

// CanonSample is a JPEG tagged Canon / EOS R5, f/7, 1/250s, ISO 400.
func CanonSample() []byte {
	return JPEG(TIFF(
		[]Tag{ASCII(TagMake, "Canon"), ASCII(TagModel, "EOS R5")},
		[]Tag{
			Rational(TagExposureTime, [2]uint32{1, 250}),
			Rational(TagFNumber, [2]uint32{7, 1}),
			Short(TagISOSpeedRatings, 400),
		},
		nil,
	))
}

// GPSSample is a JPEG located at 40°26'46"N 79°58'56"W.
func GPSSample() []byte {
	return JPEG(TIFF(
		[]Tag{ASCII(TagMake, "Canon"), ASCII(TagModel, "EOS R5")},
		nil,
		[]Tag{
			ASCII(TagGPSLatitudeRef, "N"),
			Rational(TagGPSLatitude, [2]uint32{40, 1}, [2]uint32{26, 1}, [2]uint32{46, 1}),
			ASCII(TagGPSLongitudeRef, "W"),
			Rational(TagGPSLongitude, [2]uint32{79, 1}, [2]uint32{58, 1}, [2]uint32{56, 1}),
		},
	))
}
