package e2e_harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotAttribute is one seeded row of the attributes table.
type SnapshotAttribute struct {
	Slug          string
	Title         string
	Type          string
	IsRequired    bool
	IsMultiselect bool
	TargetObject  string
	Options       []SnapshotOption
}

// SnapshotOption is one seeded row of the attribute options table.
type SnapshotOption struct {
	ID         string
	Title      string
	IsArchived bool
}

// DealSnapshot is the fixture schema shared by the integration tests.
var DealSnapshot = []SnapshotAttribute{
	{Slug: "name", Title: "Deal Name", Type: "text", IsRequired: true},
	{Slug: "stage", Title: "Stage", Type: "status", Options: []SnapshotOption{
		{ID: "st-1", Title: "Lead"},
		{ID: "st-2", Title: "Won"},
		{ID: "st-3", Title: "Lost", IsArchived: true},
	}},
	{Slug: "deal_type", Title: "Deal Type", Type: "select", Options: []SnapshotOption{
		{ID: "1", Title: "Demo"},
		{ID: "2", Title: "Enterprise Plan"},
	}},
	{Slug: "associated_company", Title: "Company", Type: "record-reference", TargetObject: "companies"},
}

// DealSnapshotJSON is DealSnapshot in the file/S3 snapshot document format.
const DealSnapshotJSON = `[
	{"slug": "name", "title": "Deal Name", "type": "text", "is_required": true},
	{"slug": "stage", "title": "Stage", "type": "status", "options": [
		{"id": "st-1", "title": "Lead"},
		{"id": "st-2", "title": "Won"},
		{"id": "st-3", "title": "Lost", "is_archived": true}
	]},
	{"slug": "deal_type", "title": "Deal Type", "type": "select", "options": [
		{"id": "1", "title": "Demo"},
		{"id": "2", "title": "Enterprise Plan"}
	]},
	{"slug": "associated_company", "title": "Company", "type": "record-reference",
	 "relationship": {"target_object_slug": "companies"}}
]`

// SeedPostgres runs the DDL statements and inserts attrs for objectType in one transaction.
func SeedPostgres(ctx context.Context, pool *pgxpool.Pool, ddl []string, attributesTable, optionsTable, objectType string, attrs []SnapshotAttribute) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range ddl {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	attrsTable := pgx.Identifier{attributesTable}.Sanitize()
	optsTable := pgx.Identifier{optionsTable}.Sanitize()
	for pos, attr := range attrs {
		var target *string
		if attr.TargetObject != "" {
			target = &attr.TargetObject
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
			(object_type, slug, title, type, is_required, is_multiselect, target_object, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, attrsTable),
			objectType, attr.Slug, attr.Title, attr.Type, attr.IsRequired, attr.IsMultiselect, target, pos); err != nil {
			return fmt.Errorf("insert attribute %s: %w", attr.Slug, err)
		}
		for optPos, opt := range attr.Options {
			if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
				(object_type, attribute_slug, option_id, title, is_archived, position)
				VALUES ($1, $2, $3, $4, $5, $6)`, optsTable),
				objectType, attr.Slug, opt.ID, opt.Title, opt.IsArchived, optPos); err != nil {
				return fmt.Errorf("insert option %s/%s: %w", attr.Slug, opt.ID, err)
			}
		}
	}
	return tx.Commit(ctx)
}

// UploadObject stores body under bucket/key, creating the bucket when it does not exist.
func UploadObject(ctx context.Context, endpoint, accessKey, secretKey, bucket, key string, body []byte) error {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}
	if endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		if _, cerr := s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); cerr != nil {
			var apiErr smithy.APIError
			if !errors.As(cerr, &apiErr) {
				return fmt.Errorf("create bucket: %w", cerr)
			}
			if code := apiErr.ErrorCode(); code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
				return fmt.Errorf("create bucket: %w", cerr)
			}
		}
	}

	uploader := manager.NewUploader(s3Client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}
