package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/attrkit"
)

// objectGetter is the part of *s3.Client the S3 source uses.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SchemaSource reads attribute snapshots stored as <prefix>/<objectType>_attributes.json.
type S3SchemaSource struct {
	snapshotSource
	client objectGetter
	bucket string
	prefix string
}

var _ attrkit.Source = (*S3SchemaSource)(nil)

// NewS3SchemaSource creates a source reading from bucket under prefix.
func NewS3SchemaSource(client objectGetter, bucket, prefix string) *S3SchemaSource {
	s := &S3SchemaSource{client: client, bucket: bucket, prefix: prefix}
	s.load = s.getObject
	return s
}

// NewS3Client builds an S3 client from cfg. A custom endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg attrkit.S3Config) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	}), nil
}

func (s *S3SchemaSource) objectKey(objectType string) string {
	return path.Join(s.prefix, objectType+AttributesFileSuffix)
}

func (s *S3SchemaSource) getObject(ctx context.Context, objectType string) ([]byte, string, error) {
	key := s.objectKey(objectType)
	source := "s3://" + s.bucket + "/" + key

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NotFound", "NoSuchBucket":
				return nil, source, fmt.Errorf("%w: %s (%s)", attrkit.ErrNotFound, source, apiErr.ErrorCode())
			}
		}
		return nil, source, fmt.Errorf("s3 get %s: %w", source, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, source, fmt.Errorf("read %s: %w", source, err)
	}
	return data, source, nil
}
