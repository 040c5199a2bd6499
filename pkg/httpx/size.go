package httpx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(b|kb|mb|gb)$`)

var sizeUnits = map[string]int64{
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
}

// ParseSize converts a human size string like "10mb" into bytes. Fractional
// values are allowed and truncated toward zero ("1.5kb" -> 1536).
func ParseSize(size string) (int64, error) {
	m := sizePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(size)))
	if m == nil {
		return 0, fmt.Errorf("httpx: invalid size %q", size)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("httpx: invalid size %q", size)
	}

	return int64(value * float64(sizeUnits[m[2]])), nil
}
