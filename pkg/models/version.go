package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ModelVersion identifiers are lexicographically sortable: a UTC timestamp
// followed by a short content hash, e.g. v20250118_120000_abc123.
var versionPattern = regexp.MustCompile(`^v\d{8}_\d{6}_[a-f0-9]{6}$`)

// NewModelVersion mints a version identifier from a training timestamp and a
// content hash. Only the first 6 hex characters of the hash are used.
func NewModelVersion(trainedAt time.Time, contentHash string) (string, error) {
	hash := strings.ToLower(contentHash)
	if len(hash) < 6 {
		return "", fmt.Errorf("content hash too short: %q", contentHash)
	}
	version := fmt.Sprintf("v%s_%s", trainedAt.UTC().Format("20060102_150405"), hash[:6])
	if !versionPattern.MatchString(version) {
		return "", fmt.Errorf("generated version has invalid format: %q", version)
	}
	return version, nil
}

// ValidateVersion checks that a version string has the expected format.
func ValidateVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("invalid model version format: %q (expected v20250118_120000_abc123)", version)
	}
	return nil
}
