package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLineColumn(t *testing.T) {
	content := "first\nsecond\nthird"

	tests := []struct {
		name     string
		offset   int
		wantLine int
		wantCol  int
	}{
		{"start of content", 0, 0, 0},
		{"middle of first line", 3, 0, 3},
		{"start of second line", 6, 1, 0},
		{"middle of second line", 9, 1, 3},
		{"start of third line", 13, 2, 0},
		{"end of content", len(content), 2, 5},
		{"offset past end clamps", len(content) + 10, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := ComputeLineColumn(content, tt.offset)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}

func TestEnclosingLine(t *testing.T) {
	content := "alpha\nbeta gamma\ndelta"

	assert.Equal(t, "alpha", EnclosingLine(content, 2))
	assert.Equal(t, "beta gamma", EnclosingLine(content, 8))
	assert.Equal(t, "delta", EnclosingLine(content, len(content)-1))
}

func TestEnclosingLine_SingleLine(t *testing.T) {
	assert.Equal(t, "no newlines here", EnclosingLine("no newlines here", 5))
}

func TestEnclosingLine_EmptyContent(t *testing.T) {
	assert.Equal(t, "", EnclosingLine("", 0))
}
