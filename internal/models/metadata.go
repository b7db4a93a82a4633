package models

// NormalizedMetadata is the flat, display-ready metadata record. A nil field
// was not present in the source data.
type NormalizedMetadata struct {
	Title           *string `json:"title,omitempty"`
	Caption         *string `json:"caption,omitempty"`
	AltText         *string `json:"alt_text,omitempty"`
	Camera          *string `json:"camera,omitempty"`
	Lens            *string `json:"lens,omitempty"`
	Aperture        *string `json:"aperture,omitempty"`
	Shutter         *string `json:"shutter,omitempty"`
	ISO             *string `json:"iso,omitempty"`
	FocalLength     *string `json:"focal_length,omitempty"`
	FocalLength35mm *string `json:"focal_length_35mm,omitempty"`
	DateTaken       *string `json:"date_taken,omitempty"`
	Flash           *string `json:"flash,omitempty"`
	WhiteBalance    *string `json:"white_balance,omitempty"`
	ExposureMode    *string `json:"exposure_mode,omitempty"`
	MeteringMode    *string `json:"metering_mode,omitempty"`
	ColorSpace      *string `json:"color_space,omitempty"`
	Software        *string `json:"software,omitempty"`
	GPSCoordinates  *string `json:"gps_coordinates,omitempty"`
	Location        *string `json:"location,omitempty"`
	PixelSize       *string `json:"pixel_size,omitempty"`
	FileSize        *string `json:"file_size,omitempty"`
}

// Fields flattens the record to field name -> value, skipping absent fields.
func (m NormalizedMetadata) Fields() map[string]string {
	out := make(map[string]string)
	add := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	add("title", m.Title)
	add("caption", m.Caption)
	add("alt_text", m.AltText)
	add("camera", m.Camera)
	add("lens", m.Lens)
	add("aperture", m.Aperture)
	add("shutter", m.Shutter)
	add("iso", m.ISO)
	add("focal_length", m.FocalLength)
	add("focal_length_35mm", m.FocalLength35mm)
	add("date_taken", m.DateTaken)
	add("flash", m.Flash)
	add("white_balance", m.WhiteBalance)
	add("exposure_mode", m.ExposureMode)
	add("metering_mode", m.MeteringMode)
	add("color_space", m.ColorSpace)
	add("software", m.Software)
	add("gps_coordinates", m.GPSCoordinates)
	add("location", m.Location)
	add("pixel_size", m.PixelSize)
	add("file_size", m.FileSize)
	return out
}

// Diagnostics describes what the decoder did. Callers never depend on it.
type Diagnostics struct {
	FileExtension     string `json:"file_extension"`
	IsSupportedFormat bool   `json:"is_supported_format"`
	DecoderRan        bool   `json:"decoder_ran"`
	DecodeSuccess     bool   `json:"decode_success"`
	TagsFound         int    `json:"tags_found"`
	UsedOriginal      bool   `json:"used_original"`
}

type MetadataResult struct {
	Metadata NormalizedMetadata
	Debug    Diagnostics
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
