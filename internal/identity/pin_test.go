package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePin_StaysInSixDigitRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		pin := GeneratePin()
		assert.GreaterOrEqual(t, pin, 100000)
		assert.LessOrEqual(t, pin, 999999)
	}
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"123456", 123456},
		{"000001", 1},
		{"", 0},
		{"abc", 0},
		{"12a456", 0},
		{"-123", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePin(tt.in), "parsePin(%q)", tt.in)
	}
}
