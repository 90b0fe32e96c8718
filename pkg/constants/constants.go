package constants

import "fmt"

// Persisted state layout at the storage boundary. These key schemes are a
// compatibility contract with the publisher; changing them orphans every
// published artifact.
const (
	ModelPrefix    = "models/"
	MetadataPrefix = "metadata/"
	BaselinePrefix = "baselines/"
	ServingPrefix  = "serving/"
	HistoryPrefix  = "serving/history/"

	DefaultModelFormat = "onnx"
)

// ModelKey returns the storage key for a model artifact.
func ModelKey(version, format string) string {
	if format == "" {
		format = DefaultModelFormat
	}
	return fmt.Sprintf("%s%s.%s", ModelPrefix, version, format)
}

// MetadataKey returns the storage key for model metadata.
func MetadataKey(version string) string {
	return fmt.Sprintf("%s%s.json", MetadataPrefix, version)
}

// BaselineKey returns the storage key for baseline statistics.
func BaselineKey(version string) string {
	return fmt.Sprintf("%s%s_baseline.json", BaselinePrefix, version)
}

// PointerKey returns the storage key for an environment's serving pointer.
func PointerKey(environment string) string {
	return fmt.Sprintf("%s%s.json", ServingPrefix, environment)
}

// HistoryKeyPrefix returns the key prefix for an environment's archived
// pointers.
func HistoryKeyPrefix(environment string) string {
	return fmt.Sprintf("%s%s_", HistoryPrefix, environment)
}

// HTTP headers and content types used by the transport layer.
const (
	HeaderContentType  = "Content-Type"
	HeaderRequestID    = "X-Request-ID"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"

	ContentTypeJSON = "application/json"
)

// Default tuning values shared by the server and CLI.
const (
	DefaultReloadInterval     = 300  // seconds
	DefaultDriftCheckInterval = 3600 // seconds
	DefaultDriftWindowSize    = 1000
	DefaultBufferSize         = 10000
	DefaultPSIThreshold       = 0.2
	DefaultKSThreshold        = 0.1
	DefaultMaxBatchSize       = 1000
	DefaultMaxFeatures        = 100
	DefaultMaxFeatureNameLen  = 64
)
