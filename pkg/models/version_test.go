package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelVersion(t *testing.T) {
	trainedAt := time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)

	version, err := NewModelVersion(trainedAt, "abc123def456")
	require.NoError(t, err)
	assert.Equal(t, "v20250118_120000_abc123", version)
	require.NoError(t, ValidateVersion(version))
}

func TestNewModelVersionNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	trainedAt := time.Date(2025, 1, 18, 14, 0, 0, 0, loc)

	version, err := NewModelVersion(trainedAt, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "v20250118_120000_abc123", version)
}

func TestNewModelVersionShortHash(t *testing.T) {
	_, err := NewModelVersion(time.Now(), "ab12")
	assert.Error(t, err)
}

func TestNewModelVersionNonHexHash(t *testing.T) {
	_, err := NewModelVersion(time.Now(), "zzzzzz")
	assert.Error(t, err)
}

func TestValidateVersion(t *testing.T) {
	valid := []string{
		"v20250118_120000_abc123",
		"v20251231_235959_000000",
	}
	for _, v := range valid {
		assert.NoError(t, ValidateVersion(v), v)
	}

	invalid := []string{
		"",
		"v20250118_120000",
		"20250118_120000_abc123",
		"v20250118_120000_ABC123",
		"v20250118_120000_abc12",
		"v20250118_120000_ghijkl",
		"v2025018_120000_abc123",
		"model-v2",
	}
	for _, v := range invalid {
		assert.Error(t, ValidateVersion(v), v)
	}
}

func TestVersionsSortChronologically(t *testing.T) {
	older, err := NewModelVersion(time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC), "ffffff")
	require.NoError(t, err)
	newer, err := NewModelVersion(time.Date(2025, 1, 19, 9, 0, 0, 0, time.UTC), "000000")
	require.NoError(t, err)
	assert.Less(t, older, newer)
}
