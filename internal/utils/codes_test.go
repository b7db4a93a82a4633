package utils

import "testing"

func TestCodeTables(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int64) string
		code int64
		want string
	}{
		{"flash none", FlashDescription, 0, "No Flash"},
		{"flash auto fired", FlashDescription, 25, "Auto, Fired"},
		{"flash red-eye", FlashDescription, 95, "Red-eye reduction, Auto, Fired, Return detected"},
		{"flash unknown", FlashDescription, 2, "Unknown"},
		{"white balance manual", WhiteBalance, 1, "Manual"},
		{"white balance unknown", WhiteBalance, 7, "Unknown"},
		{"exposure bracket", ExposureMode, 2, "Auto bracket"},
		{"metering pattern", MeteringMode, 5, "Pattern"},
		{"metering other", MeteringMode, 255, "Unknown"},
		{"color space srgb", ColorSpace, 1, "sRGB"},
		{"color space uncalibrated", ColorSpace, 65535, "Uncalibrated"},
		{"color space adobe", ColorSpace, 2, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.code); got != tt.want {
				t.Errorf("lookup(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
