package util

import (
	"fmt"
	"regexp"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ValidateHexColor checks a "#RRGGBB" or "#RRGGBBAA" color string.
func ValidateHexColor(c string) error {
	if !hexColorRe.MatchString(c) {
		return fmt.Errorf("invalid hex color %q (expected #RRGGBB or #RRGGBBAA)", c)
	}
	return nil
}

// HexToFFmpegColor converts "#RRGGBB" to ffmpeg's 0xRRGGBB color syntax.
// ffmpeg also accepts the named/hash form, but the 0x form is unambiguous
// inside lavfi source strings.
func HexToFFmpegColor(c string) string {
	if len(c) > 0 && c[0] == '#' {
		return "0x" + c[1:]
	}
	return c
}
