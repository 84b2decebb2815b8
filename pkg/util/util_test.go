package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{90 * time.Second, "00:01:30.000"},
		{time.Hour + 23*time.Minute + 45*time.Second + 678*time.Millisecond, "01:23:45.678"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"5", 5 * time.Second, false},
		{"1:30", 90 * time.Second, false},
		{"01:23:45.5", time.Hour + 23*time.Minute + 45*time.Second + 500*time.Millisecond, false},
		{"1:2:3:4", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("got %g", got)
	}
	if got := ParseFrameRate("30000/1001"); got < 29.96 || got > 29.98 {
		t.Errorf("got %g", got)
	}
	if got := ParseFrameRate("bad"); got != 0 {
		t.Errorf("got %g", got)
	}
	if got := ParseFrameRate("30/0"); got != 0 {
		t.Errorf("division by zero should yield 0, got %g", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{0.5, "0.5"},
		{2.25, "2.25"},
		{29.97, "29.97"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFrameRate(t *testing.T) {
	if got := FormatFrameRate(30); got != "30" {
		t.Errorf("got %q", got)
	}
	if got := FormatFrameRate(23.976); got != "23.976" {
		t.Errorf("got %q", got)
	}
}

func TestValidateHexColor(t *testing.T) {
	for _, ok := range []string{"#000000", "#FFAA00", "#ffaa00", "#FFAA00CC"} {
		if err := ValidateHexColor(ok); err != nil {
			t.Errorf("%q should validate: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "000000", "#FFF", "#GGGGGG", "#FFAA0"} {
		if err := ValidateHexColor(bad); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}

func TestHexToFFmpegColor(t *testing.T) {
	if got := HexToFFmpegColor("#00FF00"); got != "0x00FF00" {
		t.Errorf("got %q", got)
	}
	if got := HexToFFmpegColor("black"); got != "black" {
		t.Errorf("named colors pass through, got %q", got)
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"video.MP4", ".mp4"},
		{"clip.webm", ".webm"},
		{"https://cdn.example.com/path/clip.MOV?sig=abc", ".mov"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := Extension(tt.in); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/v.mp4") || !IsURL("http://example.com/v.mp4") {
		t.Error("http(s) sources are URLs")
	}
	if IsURL("/tmp/v.mp4") || IsURL("v.mp4") {
		t.Error("local paths are not URLs")
	}
}
