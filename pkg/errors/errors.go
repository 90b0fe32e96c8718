package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrModelNotLoaded   = errors.New("no model loaded")
	ErrPointerNotFound  = errors.New("serving pointer not found")
	ErrNoPreviousModel  = errors.New("no previous version to roll back to")
	ErrSchemaMismatch   = errors.New("schema validation failed")
	ErrStoreUnavailable = errors.New("artifact store unavailable")
	ErrObjectNotFound   = errors.New("object not found")
	ErrInvalidVersion   = errors.New("invalid model version")
)

// Kind categorizes application errors. The transport layer maps kinds to
// HTTP statuses; the core only ever deals in kinds.
type Kind string

const (
	KindNotLoaded   Kind = "not_loaded"
	KindValidation  Kind = "validation"
	KindUnavailable Kind = "unavailable"
	KindIntegrity   Kind = "integrity"
	KindInternal    Kind = "internal"
)

// AppError is an application error with taxonomy and context.
type AppError struct {
	Kind       Kind           `json:"kind"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    string         `json:"details,omitempty"`
	Cause      error          `json:"-"`
	Context    map[string]any `json:"context,omitempty"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches errors by kind and code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithContext attaches a key/value pair to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithDetails attaches free-form details to the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New creates an application error of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		Retryable:  kind == KindUnavailable,
		HTTPStatus: defaultHTTPStatus(kind),
	}
}

// Wrap attaches taxonomy to an existing error.
func Wrap(err error, kind Kind, code, message string) *AppError {
	e := New(kind, code, message)
	e.Cause = err
	return e
}

// NewNotLoadedError reports that no model is active yet.
func NewNotLoadedError(message string) *AppError {
	return New(KindNotLoaded, "MODEL_NOT_LOADED", message)
}

// NewValidationError reports a caller fault: schema mismatch, malformed or
// non-finite feature values. Never retryable.
func NewValidationError(code, message string) *AppError {
	return New(KindValidation, code, message)
}

// NewUnavailableError reports a transient collaborator failure that the
// store's retry policy has already exhausted.
func NewUnavailableError(code, message string) *AppError {
	return New(KindUnavailable, code, message)
}

// NewIntegrityError reports a promotion target with missing artifacts or
// metadata fields. The authoritative pointer is left unchanged.
func NewIntegrityError(code, message string) *AppError {
	return New(KindIntegrity, code, message)
}

// NewInternalError reports an unexpected runtime failure.
func NewInternalError(message string) *AppError {
	return New(KindInternal, "INTERNAL_ERROR", message)
}

// KindOf extracts the kind of an error, defaulting to internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf extracts the code of an error, defaulting to INTERNAL_ERROR.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}

// HTTPStatusOf extracts the HTTP status of an error, defaulting to 500.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return 500
}

func defaultHTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return 400
	case KindNotLoaded, KindUnavailable:
		return 503
	case KindIntegrity:
		return 409
	default:
		return 500
	}
}

// Error codes used across the runtime.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidFormat       = "INVALID_FORMAT"
	CodeNonFiniteValues     = "NON_FINITE_VALUES"
	CodeSchemaMismatch      = "SCHEMA_MISMATCH"
	CodeBatchTooLarge       = "BATCH_TOO_LARGE"
	CodeTooManyFeatures     = "TOO_MANY_FEATURES"
	CodeFeatureNameTooLong  = "FEATURE_NAME_TOO_LONG"
	CodeModelNotFound       = "MODEL_NOT_FOUND"
	CodeMetadataNotFound    = "METADATA_NOT_FOUND"
	CodeBaselineNotFound    = "BASELINE_NOT_FOUND"
	CodeInvalidMetadata     = "INVALID_METADATA"
	CodePointerWriteFailed  = "POINTER_WRITE_FAILED"
	CodeNoPreviousVersion   = "NO_PREVIOUS_VERSION"
	CodeStoreRequestFailed  = "STORE_REQUEST_FAILED"
	CodeObjectNotFound      = "OBJECT_NOT_FOUND"
	CodeArtifactFetchFailed = "ARTIFACT_FETCH_FAILED"
	CodeRuntimeLoadFailed   = "RUNTIME_LOAD_FAILED"
	CodeInferenceFailed     = "INFERENCE_FAILED"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
)
