package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"merged.pdf", "merged.pdf"},
		{"merged", "merged.pdf"},
		{"Report Q3.PDF", "ReportQ3.pdf"},
		{"../../etc/passwd", "etcpasswd.pdf"},
		{"", "merged.pdf"},
		{"...", "merged.pdf"},
		{"bài tập tuần 1", "bitptun1.pdf"},
		{"two.dots.pdf", "two.dots.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputName(tt.in), tt.in)
	}
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "3", position(json.Number("3")))
	assert.Equal(t, "07", position("07"))
	assert.Equal(t, "", position(true))
	assert.Equal(t, "", position(nil))
}
