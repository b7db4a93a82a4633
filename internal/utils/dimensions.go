package utils

import (
	"fmt"
	"image"
	"io"
	"strings"

	// Formats image.DecodeConfig can read.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/adrium/goheif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// IsHeifLike reports whether a MIME type or extension names a HEIC/HEIF image.
func IsHeifLike(kind string) bool {
	t := strings.ToLower(kind)
	return strings.Contains(t, "heic") || strings.Contains(t, "heif")
}

// ReadDimensions reads the pixel width and height from an image header
// without decoding pixel data.
func ReadDimensions(r io.Reader, ext string) (int, int, error) {
	var (
		cfg image.Config
		err error
	)
	if IsHeifLike(ext) {
		cfg, err = goheif.DecodeConfig(r)
	} else {
		cfg, _, err = image.DecodeConfig(r)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
