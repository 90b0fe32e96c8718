package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/interfaces"
)

// Config holds configuration for the S3 artifact store.
type Config struct {
	Region          string        `json:"region"`
	Bucket          string        `json:"bucket"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	SessionToken    string        `json:"session_token,omitempty"`
	Endpoint        string        `json:"endpoint,omitempty"`
	ForcePathStyle  bool          `json:"force_path_style"`
	DisableSSL      bool          `json:"disable_ssl"`
	RetryAttempts   int           `json:"retry_attempts"`
	RetryMinWait    time.Duration `json:"retry_min_wait"`
	RetryMaxWait    time.Duration `json:"retry_max_wait"`
}

// Store implements interfaces.ArtifactStore backed by AWS S3. Transient
// failures are retried with bounded exponential backoff; exhausted retries
// surface as unavailable-kind errors.
type Store struct {
	config   *Config
	s3Client *s3.S3
	logger   *logrus.Logger
}

// NewStore creates and connects an S3 artifact store. Credentials fall back
// to the default AWS chain (IAM role, environment, shared config) when not
// set explicitly.
func NewStore(config *Config, logger *logrus.Logger) (*Store, error) {
	if config == nil {
		return nil, errors.NewUnavailableError("INVALID_CONFIG", "S3 config cannot be nil")
	}
	if config.Bucket == "" {
		return nil, errors.NewUnavailableError("INVALID_CONFIG", "S3 bucket is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryMinWait <= 0 {
		config.RetryMinWait = 2 * time.Second
	}
	if config.RetryMaxWait <= 0 {
		config.RetryMaxWait = 10 * time.Second
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		// Per-request retries are handled by retryOp below.
		MaxRetries: aws.Int(0),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKeyID,
			config.SecretAccessKey,
			config.SessionToken,
		)
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(config.ForcePathStyle)
	}
	if config.DisableSSL {
		awsConfig.DisableSSL = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "SESSION_FAILED", "failed to create AWS session")
	}

	store := &Store{
		config:   config,
		s3Client: s3.New(sess),
		logger:   logger,
	}

	logger.WithFields(logrus.Fields{
		"region": config.Region,
		"bucket": config.Bucket,
	}).Info("Initialized S3 artifact store")

	return store, nil
}

// Exists reports whether an object exists in the bucket.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.retryOp(ctx, "head", func() error {
		_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(key),
		})
		if isNotFound(err) {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// PutObject writes raw bytes under key.
func (s *Store) PutObject(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(key)),
	}
	if len(metadata) > 0 {
		input.Metadata = make(map[string]*string, len(metadata))
		for k, v := range metadata {
			input.Metadata[k] = aws.String(v)
		}
	}

	err := s.retryOp(ctx, "put", func() error {
		_, err := s.s3Client.PutObjectWithContext(ctx, input)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"key":  key,
		"size": len(data),
	}).Debug("Uploaded object to S3")
	return nil
}

// GetObject reads the raw bytes stored under key.
func (s *Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.retryOp(ctx, "get", func() error {
		out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// PutJSON marshals v and writes it under key.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "MARSHAL_FAILED", "failed to marshal JSON for "+key)
	}
	return s.PutObject(ctx, key, data, nil)
}

// GetJSON reads key and unmarshals into v.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	data, err := s.GetObject(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.KindInternal, "UNMARSHAL_FAILED", "invalid JSON at "+key)
	}
	return nil
}

// ListKeys returns all keys with the given prefix.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.retryOp(ctx, "list", func() error {
		keys = keys[:0]
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(s.config.Bucket),
			Prefix: aws.String(prefix),
		}
		return s.s3Client.ListObjectsV2PagesWithContext(ctx, input,
			func(page *s3.ListObjectsV2Output, lastPage bool) bool {
				for _, obj := range page.Contents {
					keys = append(keys, aws.StringValue(obj.Key))
				}
				return true
			})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// URI returns the s3:// URI for a key.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.config.Bucket, key)
}

// retryOp runs op with bounded exponential backoff. NotFound responses from
// GetObject surface immediately as typed errors; everything else retries
// until attempts are exhausted.
func (s *Store) retryOp(ctx context.Context, operation string, op func() error) error {
	wait := s.config.RetryMinWait
	var lastErr error

	for attempt := 1; attempt <= s.config.RetryAttempts; attempt++ {
		err := op()
		if err == nil {
			observability.StorageOperationsTotal.WithLabelValues("s3", operation, "ok").Inc()
			return nil
		}
		if isNotFound(err) {
			observability.StorageOperationsTotal.WithLabelValues("s3", operation, "not_found").Inc()
			return errors.Wrap(err, errors.KindUnavailable, errors.CodeObjectNotFound, "object not found")
		}
		lastErr = err

		s.logger.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"error":     err.Error(),
		}).Warn("S3 operation failed")

		if attempt == s.config.RetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			observability.StorageOperationsTotal.WithLabelValues("s3", operation, "cancelled").Inc()
			return errors.Wrap(ctx.Err(), errors.KindUnavailable, errors.CodeStoreRequestFailed, "S3 operation cancelled")
		case <-time.After(wait):
		}
		wait *= 2
		if wait > s.config.RetryMaxWait {
			wait = s.config.RetryMaxWait
		}
	}

	observability.StorageOperationsTotal.WithLabelValues("s3", operation, "error").Inc()
	return errors.Wrap(lastErr, errors.KindUnavailable, errors.CodeStoreRequestFailed,
		fmt.Sprintf("S3 %s failed after %d attempts", operation, s.config.RetryAttempts))
}

var _ interfaces.ArtifactStore = (*Store)(nil)

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func contentTypeFor(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "application/json"
	}
	return "application/octet-stream"
}
