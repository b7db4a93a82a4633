package utils

// Fixed EXIF code tables. Lookup returns "Unknown" for codes not listed.

var flashDescriptions = map[int64]string{
	0:  "No Flash",
	1:  "Flash Fired",
	5:  "Flash Fired, Return not detected",
	7:  "Flash Fired, Return detected",
	8:  "On, Did not fire",
	9:  "On, Fired",
	13: "On, Return not detected",
	15: "On, Return detected",
	16: "Off, Did not fire",
	24: "Auto, Did not fire",
	25: "Auto, Fired",
	29: "Auto, Fired, Return not detected",
	31: "Auto, Fired, Return detected",
	32: "No flash function",
	65: "Red-eye reduction, Fired",
	69: "Red-eye reduction, Fired, Return not detected",
	71: "Red-eye reduction, Fired, Return detected",
	73: "Red-eye reduction, On, Fired",
	77: "Red-eye reduction, On, Fired, Return not detected",
	79: "Red-eye reduction, On, Fired, Return detected",
	89: "Red-eye reduction, Auto, Fired",
	93: "Red-eye reduction, Auto, Fired, Return not detected",
	95: "Red-eye reduction, Auto, Fired, Return detected",
}

var whiteBalanceModes = map[int64]string{
	0: "Auto",
	1: "Manual",
}

var exposureModes = map[int64]string{
	0: "Auto",
	1: "Manual",
	2: "Auto bracket",
}

var meteringModes = map[int64]string{
	0: "Unknown",
	1: "Average",
	2: "Center-weighted average",
	3: "Spot",
	4: "Multi-spot",
	5: "Pattern",
	6: "Partial",
}

var colorSpaces = map[int64]string{
	1:     "sRGB",
	65535: "Uncalibrated",
}

const unknownCode = "Unknown"

func lookup(table map[int64]string, code int64) string {
	if s, ok := table[code]; ok {
		return s
	}
	return unknownCode
}

func FlashDescription(code int64) string { return lookup(flashDescriptions, code) }
func WhiteBalance(code int64) string     { return lookup(whiteBalanceModes, code) }
func ExposureMode(code int64) string     { return lookup(exposureModes, code) }
func MeteringMode(code int64) string     { return lookup(meteringModes, code) }
func ColorSpace(code int64) string       { return lookup(colorSpaces, code) }
