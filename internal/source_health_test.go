package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/attrkit"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSchemaSource_HealthCheck(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewFileSchemaSource(dir).HealthCheck(context.Background()))

	err := NewFileSchemaSource(filepath.Join(dir, "missing")).HealthCheck(context.Background())
	assert.ErrorIs(t, err, attrkit.ErrNotFound)

	file := filepath.Join(dir, "plain.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0o644))
	err = NewFileSchemaSource(file).HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestPostgresSchemaSource_HealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectQuery(`SELECT 1 FROM "attributes" LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	require.NoError(t, source.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_HealthCheckFailures(t *testing.T) {
	t.Run("ping", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err = NewPostgresSchemaSource(mock, "attributes", "attribute_options").HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres ping failed")
	})

	t.Run("missing table", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectPing()
		mock.ExpectQuery(`SELECT 1 FROM "crm"."attributes" LIMIT 1`).
			WillReturnError(errors.New(`relation "crm.attributes" does not exist`))

		err = NewPostgresSchemaSource(mock, "crm.attributes", "crm.attribute_options").HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "attributes table probe failed")
	})
}

// headingObjectGetter adds HeadBucket to fakeObjectGetter.
type headingObjectGetter struct {
	fakeObjectGetter
	headErr error
	buckets []string
}

func (h *headingObjectGetter) HeadBucket(_ context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	h.buckets = append(h.buckets, aws.ToString(params.Bucket))
	if h.headErr != nil {
		return nil, h.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3SchemaSource_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable bucket", func(t *testing.T) {
		client := &headingObjectGetter{}
		require.NoError(t, NewS3SchemaSource(client, "schemas", "p").HealthCheck(ctx))
		assert.Equal(t, []string{"schemas"}, client.buckets)
	})

	t.Run("missing bucket", func(t *testing.T) {
		client := &headingObjectGetter{headErr: &smithy.GenericAPIError{Code: "NotFound"}}
		err := NewS3SchemaSource(client, "schemas", "").HealthCheck(ctx)
		assert.ErrorIs(t, err, attrkit.ErrNotFound)
	})

	t.Run("access denied", func(t *testing.T) {
		client := &headingObjectGetter{headErr: &smithy.GenericAPIError{Code: "Forbidden"}}
		err := NewS3SchemaSource(client, "schemas", "").HealthCheck(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, attrkit.ErrNotFound))
	})

	t.Run("client without HeadBucket", func(t *testing.T) {
		assert.NoError(t, NewS3SchemaSource(&fakeObjectGetter{}, "schemas", "").HealthCheck(ctx))
	})
}
