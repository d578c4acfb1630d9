package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"James Bond", "James Bond"},
		{"  James   Bond  ", "James Bond"},
		{"James\t\nBond", "James Bond"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TrimAndNormalize(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bond@example.com", NormalizeEmail("  Bond@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already E.164", "+442079460958", "+442079460958"},
		{"national format gets region prefix", "020 7946 0958", "+442079460958"},
		{"empty", "", ""},
		{"unparseable passes through trimmed", "  not-a-phone  ", "not-a-phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+442079460958"))
	assert.False(t, IsValidPhone("12345"))
	assert.False(t, IsValidPhone(""))
}
