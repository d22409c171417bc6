package e2e_harness

import (
	"context"
	"testing"
	"time"

	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealPayload() map[string]any {
	return map[string]any{
		"Deal Name": "Renewal",
		"deal type": "demo",
		"company":   "c-1",
	}
}

func assertDealTransformed(t *testing.T, engine attrkit.Engine) {
	t.Helper()
	ctx := context.Background()

	out, err := engine.ResolveAndTransform(ctx, "deals", attrkit.OperationCreate, dealPayload())
	require.NoError(t, err)
	assert.Equal(t, "Renewal", out.Attributes["name"])
	assert.Equal(t, []string{"1"}, out.Attributes["deal_type"])
	assert.Equal(t, []map[string]any{{
		internal.RefTargetObjectKey: "companies",
		internal.RefTargetRecordKey: "c-1",
	}}, out.Attributes["associated_company"])

	_, err = engine.TransformFilters(ctx, "deals", attrkit.FilterSet{
		Filters: []attrkit.FilterClause{{
			Attribute: attrkit.FilterAttribute{Slug: "stage"},
			Condition: attrkit.ConditionEquals,
			Value:     "Lost",
		}},
	})
	require.Error(t, err, "archived options are not valid filter values")
	assert.Equal(t, attrkit.ErrCodeInvalidOption, attrkit.ErrorCode(err))
}

func TestPostgresSourceE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := &TestHarness{}
	pool, err := h.StartPostgres(ctx)
	if err != nil {
		t.Skipf("skipping, cannot start postgres container: %v", err)
	}
	defer h.StopPostgres(context.Background())

	defaults := attrkit.DefaultConfig().Source.Postgres
	ddl := internal.SnapshotTablesDDL(defaults.AttributesTable, defaults.OptionsTable)
	require.NoError(t, SeedPostgres(ctx, pool, ddl, defaults.AttributesTable, defaults.OptionsTable, "deals", DealSnapshot))

	source := internal.NewPostgresSchemaSource(pool, defaults.AttributesTable, defaults.OptionsTable)
	require.NoError(t, source.HealthCheck(ctx))

	types, err := source.ObjectTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deals"}, types)

	attrs, err := source.FetchAttributes(ctx, "deals")
	require.NoError(t, err)
	require.Len(t, attrs, len(DealSnapshot))
	assert.Equal(t, "name", attrs[0].Slug)
	assert.True(t, attrs[0].IsRequired)

	_, err = source.FetchAttributes(ctx, "people")
	assert.ErrorIs(t, err, attrkit.ErrNotFound)

	assertDealTransformed(t, internal.NewEngine(attrkit.DefaultConfig(), source, nil))
}

func TestS3SourceE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := &TestHarness{}
	endpoint, err := h.StartS3(ctx)
	if err != nil {
		t.Skipf("skipping, cannot start s3 container: %v", err)
	}
	defer h.StopS3(context.Background())

	const bucket = "attrkit-schemas"
	require.NoError(t, UploadObject(ctx, endpoint, S3AccessKey, S3SecretKey, bucket,
		"acme/deals"+internal.AttributesFileSuffix, []byte(DealSnapshotJSON)))

	client, err := internal.NewS3Client(ctx, attrkit.S3Config{
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: S3AccessKey,
		SecretKey: S3SecretKey,
	})
	require.NoError(t, err)
	source := internal.NewS3SchemaSource(client, bucket, "acme")
	require.NoError(t, source.HealthCheck(ctx))
	assert.ErrorIs(t, internal.NewS3SchemaSource(client, "no-such-bucket", "").HealthCheck(ctx), attrkit.ErrNotFound)

	_, err = source.FetchAttributes(ctx, "people")
	assert.ErrorIs(t, err, attrkit.ErrNotFound)

	assertDealTransformed(t, internal.NewEngine(attrkit.DefaultConfig(), source, nil))
}
