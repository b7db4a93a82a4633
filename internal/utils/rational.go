package utils

import (
	"fmt"
	"math"
	"strconv"
)

// Rational is an EXIF RATIONAL or SRATIONAL value.
type Rational struct {
	Num int64
	Den int64
}

// Float returns num/den. ok is false for a zero denominator.
func (r Rational) Float() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// String renders the fraction as it is stored, e.g. "1/250".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Round rounds half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// FormatDecimal renders x without trailing zeros: 7 -> "7", 7.10 -> "7.1".
func FormatDecimal(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// ApertureFromAPEX converts an APEX aperture value to an f-number.
func ApertureFromAPEX(av float64) float64 {
	return math.Pow(2, av/2)
}

// ExposureFromAPEX converts an APEX shutter speed value to seconds.
func ExposureFromAPEX(tv float64) float64 {
	return math.Pow(2, -tv)
}

// DMSToDecimal converts a degrees/minutes/seconds triple to decimal degrees.
// Each component is evaluated on its own; a zero denominator contributes 0.
// A ref of "S" or "W" negates the result. ok is false when fewer than three
// components are given.
func DMSToDecimal(dms []Rational, ref string) (float64, bool) {
	if len(dms) < 3 {
		return 0, false
	}
	component := func(r Rational) float64 {
		v, ok := r.Float()
		if !ok {
			return 0
		}
		return v
	}

	decimal := component(dms[0]) + component(dms[1])/60 + component(dms[2])/3600
	if ref == "S" || ref == "W" {
		decimal = -decimal
	}
	return decimal, true
}
