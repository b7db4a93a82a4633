package utils

import (
	"testing"
)

func TestFormatDateTaken(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "EXIF format",
			input:  "2025:01:15 14:30:00",
			want:   "January 15, 2025 2:30 PM",
			wantOK: true,
		},
		{
			name:   "Christmas example",
			input:  "2024:12:25 09:15:00",
			want:   "December 25, 2024 9:15 AM",
			wantOK: true,
		},
		{
			name:   "trailing NUL",
			input:  "2023:07:04 00:05:59\x00",
			want:   "July 4, 2023 12:05 AM",
			wantOK: true,
		},
		{
			name:   "dashed date",
			input:  "2022-03-09 18:00:00",
			want:   "March 9, 2022 6:00 PM",
			wantOK: true,
		},
		{
			name:   "blank camera clock",
			input:  "    :  :     :  :  ",
			wantOK: false,
		},
		{
			name:   "Invalid format",
			input:  "not a timestamp",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatDateTaken(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FormatDateTaken(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FormatDateTaken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{3 * 1024 * 1024, "3 MB"},
		{1536 * 1024 * 1024, "2 GB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestFormatLensSpecification(t *testing.T) {
	tests := []struct {
		name   string
		spec   []Rational
		want   string
		wantOK bool
	}{
		{
			name:   "zoom",
			spec:   []Rational{{24, 1}, {70, 1}, {28, 10}, {4, 1}},
			want:   "24-70mm f/2.8-4",
			wantOK: true,
		},
		{
			name:   "prime",
			spec:   []Rational{{50, 1}, {50, 1}, {18, 10}, {18, 10}},
			want:   "50mm f/1.8",
			wantOK: true,
		},
		{
			name:   "unknown apertures",
			spec:   []Rational{{18, 1}, {55, 1}, {0, 0}, {0, 0}},
			want:   "18-55mm",
			wantOK: true,
		},
		{
			name:   "unknown focal",
			spec:   []Rational{{0, 0}, {0, 0}, {0, 0}, {0, 0}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatLensSpecification(tt.spec)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FormatLensSpecification() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
