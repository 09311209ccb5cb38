// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "12.345" and "1.234.567" are thousands-separated locale renderings;
	// a period followed by exactly three digits is never a decimal here.
	thousandsRe = regexp.MustCompile(`(\d)\.(\d{3})\b`)

	// Leading numeral with optional magnitude suffix. "mil" and "mi" are
	// the pt-BR renderings of K and M on rendered pages.
	countRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mil|mi|[kmb])?\b`)
)

// ParseCount converts a locale-formatted abbreviated count string into an
// integer: "1.2M" -> 1200000, "500K" -> 500000, "12,345" -> 12345,
// "3 mil" -> 3000. Absence of a numeral is an unknown metric, not an
// error, and yields 0.
func ParseCount(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, ",", "")
	for {
		stripped := thousandsRe.ReplaceAllString(s, "$1$2")
		if stripped == s {
			break
		}
		s = stripped
	}

	m := countRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2]) {
	case "k", "mil":
		val *= 1e3
	case "m", "mi":
		val *= 1e6
	case "b":
		val *= 1e9
	}

	return int64(math.Round(val))
}
