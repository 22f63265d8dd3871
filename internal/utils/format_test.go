package utils

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{2048, "2.0 KiB"},
		{1048576, "1.0 MiB"},
		{1572864, "1.5 MiB"},
		{-2048, "-2.0 KiB"},
	}

	for _, test := range tests {
		result := FormatBytes(test.input)
		if result != test.expected {
			t.Errorf("FormatBytes(%d) = %s, expected %s", test.input, result, test.expected)
		}
	}
}

func TestFormatAge(t *testing.T) {
	if got := FormatAge(time.Time{}); got != "never" {
		t.Errorf("FormatAge(zero) = %s, expected never", got)
	}
	if got := FormatAge(time.Now().Add(-3 * time.Minute)); got != "3 minutes ago" {
		t.Errorf("FormatAge(-3m) = %s, expected 3 minutes ago", got)
	}
}
