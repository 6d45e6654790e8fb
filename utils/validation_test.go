package utils

import "testing"

func TestIsBlank(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"https://example.com", false},
		{" x ", false},
	}

	for _, test := range tests {
		if got := IsBlank(test.input); got != test.expected {
			t.Errorf("IsBlank(%q) = %v, expected %v", test.input, got, test.expected)
		}
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"video.mp4", true},
		{"My_Song.mp3", true},
		{"", false},
		{"../etc/passwd", false},
		{"a/b.mp4", false},
		{"a\\b.mp4", false},
	}

	for _, test := range tests {
		if got := ValidateFilename(test.input); got != test.expected {
			t.Errorf("ValidateFilename(%q) = %v, expected %v", test.input, got, test.expected)
		}
	}
}
