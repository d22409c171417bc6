package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/attrkit"
)

// DefaultHealthTimeout bounds a single HealthCheck call.
const DefaultHealthTimeout = 5 * time.Second

// HealthChecker is implemented by sources that can verify their backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var (
	_ HealthChecker = (*FileSchemaSource)(nil)
	_ HealthChecker = (*PostgresSchemaSource)(nil)
	_ HealthChecker = (*S3SchemaSource)(nil)
)

type pinger interface {
	Ping(ctx context.Context) error
}

type bucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// HealthCheck verifies the schema directory exists.
func (s *FileSchemaSource) HealthCheck(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: schema directory %s", attrkit.ErrNotFound, s.dir)
		}
		return fmt.Errorf("stat schema directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("schema path %s is not a directory", s.dir)
	}
	return nil
}

// HealthCheck pings the database and probes the attributes table.
func (s *PostgresSchemaSource) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	if p, ok := s.pool.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", s.attributes))
	if err != nil {
		return fmt.Errorf("attributes table probe failed: %w", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("attributes table probe failed: %w", err)
	}
	return nil
}

// HealthCheck checks that the bucket exists and is accessible. Clients that
// cannot issue HeadBucket are assumed healthy.
func (s *S3SchemaSource) HealthCheck(ctx context.Context) error {
	h, ok := s.client.(bucketHeader)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	if _, err := h.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotFound", "NoSuchBucket":
				return fmt.Errorf("%w: bucket %s", attrkit.ErrNotFound, s.bucket)
			}
		}
		return fmt.Errorf("s3 head bucket %s: %w", s.bucket, err)
	}
	return nil
}
