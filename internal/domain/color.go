package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadColor = errors.New("unrecognized color")

// MaxRGB is the largest packed 0xRRGGBB value.
const MaxRGB = 0xFFFFFF

// Palette is handed out to participants that join without a usable color.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}

// ParseColor converts "#rgb", "#rrggbb", "#rrggbbaa" or "0xrrggbb" into a
// packed RGB value. Alpha is dropped.
func ParseColor(s string) (int32, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(s, "#"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"):
		s = s[2:]
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadColor, s)
	}

	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	case 8:
		s = s[:6]
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadColor, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return int32(v), nil
}

func FormatColor(rgb int32) string {
	return fmt.Sprintf("#%06x", uint32(rgb)&MaxRGB)
}

// NormalizeColor returns s in canonical "#rrggbb" form, or fallback when s
// cannot be parsed.
func NormalizeColor(s, fallback string) string {
	rgb, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return FormatColor(rgb)
}
