package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp parses "m:ss", "h:mm:ss" and their fractional forms ("00:01:02.500", "1:02,5").
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(strings.Replace(ts, ",", ".", 1))
	if ts == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		var value float64
		if last {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid seconds in timestamp %q: %w", ts, err)
			}
			value = v
		} else {
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
			}
			value = float64(v)
		}
		if value < 0 || (i > 0 && value >= 60) {
			return 0, fmt.Errorf("timestamp %q is out of range", ts)
		}
		total = total*60 + value
	}
	return total, nil
}

// FormatTimestamp renders seconds as "hh:mm:ss.mmm".
func FormatTimestamp(seconds float64) string {
	totalMs := int(seconds*1000 + 0.5)
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// FormatClock renders seconds the way players show them, e.g. "1:05" or "1:02:03".
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
