package reader

import (
	"fmt"
	"strconv"
	"strings"
)

// gpsPosition converts the DMS rationals of the GPS IFD into signed decimal
// degrees.
func gpsPosition(values map[string]string) (string, bool) {
	lat, ok := parseGPSCoordinate(values["GPSLatitude"])
	if !ok {
		return "", false
	}
	lon, ok := parseGPSCoordinate(values["GPSLongitude"])
	if !ok {
		return "", false
	}
	if strings.EqualFold(strings.TrimSpace(values["GPSLatitudeRef"]), "S") {
		lat = -lat
	}
	if strings.EqualFold(strings.TrimSpace(values["GPSLongitudeRef"]), "W") {
		lon = -lon
	}
	return fmt.Sprintf("%.6f, %.6f", lat, lon), true
}

func parseGPSCoordinate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
	if len(parts) == 0 {
		return 0, false
	}

	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		values = append(values, value)
	}

	switch len(values) {
	case 3:
		return values[0] + values[1]/60.0 + values[2]/3600.0, true
	case 2:
		return values[0] + values[1]/60.0, true
	default:
		return values[0], true
	}
}

func parseRational(part string) (float64, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return 0, false
	}
	num, den, isFraction := strings.Cut(part, "/")
	if !isFraction {
		value, err := strconv.ParseFloat(part, 64)
		return value, err == nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}
