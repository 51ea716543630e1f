package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAEarly/GardenEye/internal/errors"
)

func TestParseRangeValid(t *testing.T) {
	const fileSize = 1000

	tests := []struct {
		header string
		start  int64
		end    int64
	}{
		{"bytes=0-499", 0, 499},
		{"bytes=500-", 500, 999},
		{"bytes=-200", 800, 999},
		{"bytes=-2000", 0, 999}, // suffix larger than file clamps to whole file
		{"bytes=0-", 0, 999},
		{"bytes=999-999", 999, 999},
		{"bytes=0-5000", 0, 999}, // end past EOF clamps
		{"bytes=0-499,600-700", 0, 499}, // only the first range is honored
		{"bytes = 0-499", 0, 499},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			start, end, err := ParseRange(tt.header, fileSize)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestParseRangeInvalid(t *testing.T) {
	const fileSize = 1000

	headers := []string{
		"bytes=-0",        // zero suffix
		"items=0-499",     // bad unit
		"bytes=0-499-999", // bad format
		"bytes=500-499",   // inverted bounds
		"bytes",           // missing '='
		"bytes=abc-def",
		"bytes=-xyz",
	}
	for _, header := range headers {
		t.Run(header, func(t *testing.T) {
			_, _, err := ParseRange(header, fileSize)
			require.Error(t, err)
			assert.Equal(t, errors.CategoryInvalidRange, errors.CategoryOf(err))
		})
	}
}

func TestParseRangeClampsAgainstSmallFile(t *testing.T) {
	start, end, err := ParseRange("bytes=50-200", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50), start)
	assert.Equal(t, int64(99), end)
	assert.Equal(t, int64(50), end-start+1)
}
