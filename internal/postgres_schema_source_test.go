package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lychee-technology/attrkit"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attributeColumns = []string{"slug", "title", "type", "is_required", "is_unique", "is_multiselect", "target_object"}

func TestPostgresSchemaSource_FetchAttributes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(attributeColumns).
		AddRow("name", "Deal Name", "text", true, false, false, "").
		AddRow("tags", "Tags", "multi-select", false, false, true, "").
		AddRow("associated_company", "", "record-reference", false, false, false, "companies")
	mock.ExpectQuery(`SELECT slug, .+ FROM "attributes" WHERE object_type = \$1 ORDER BY position, slug`).
		WithArgs("deals").
		WillReturnRows(rows)

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	attrs, err := source.FetchAttributes(context.Background(), "deals")
	require.NoError(t, err)
	require.Len(t, attrs, 3)

	assert.Equal(t, attrkit.AttributeMetadata{Slug: "name", Title: "Deal Name", Type: attrkit.AttributeTypeText, IsRequired: true}, attrs[0])
	assert.Equal(t, attrkit.AttributeTypeSelect, attrs[1].Type)
	assert.True(t, attrs[1].IsMultiselect)
	assert.Nil(t, attrs[1].Relationship)
	require.NotNil(t, attrs[2].Relationship)
	assert.Equal(t, "companies", attrs[2].Relationship.TargetObjectSlug)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_FetchAttributes_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT slug, .+ FROM "attributes"`).
		WithArgs("ghosts").
		WillReturnRows(pgxmock.NewRows(attributeColumns))

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	_, err = source.FetchAttributes(context.Background(), "ghosts")
	assert.ErrorIs(t, err, attrkit.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_FetchAttributes_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dbErr := errors.New("db error")
	mock.ExpectQuery(`SELECT slug, .+ FROM "crm"."attributes"`).
		WithArgs("deals").
		WillReturnError(dbErr)

	source := NewPostgresSchemaSource(mock, "crm.attributes", "crm.attribute_options")
	_, err = source.FetchAttributes(context.Background(), "deals")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to query attributes")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_FetchAttributes_RowError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(attributeColumns).
		AddRow("name", "Name", "text", false, false, false, "").
		RowError(0, errors.New("broken row"))
	mock.ExpectQuery(`SELECT slug, .+ FROM "attributes"`).
		WithArgs("deals").
		WillReturnRows(rows)

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	_, err = source.FetchAttributes(context.Background(), "deals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
}

func TestPostgresSchemaSource_FetchOptions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"option_id", "title", "value", "is_archived", "type"}).
		AddRow("1", "Demo", "", false, "select").
		AddRow("2", "Legacy", "legacy", true, "select")
	mock.ExpectQuery(`SELECT o.option_id::text, .+ FROM "attribute_options" o JOIN "attributes" a .+ WHERE o.object_type = \$1 AND o.attribute_slug = \$2`).
		WithArgs("deals", "deal_type").
		WillReturnRows(rows)

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	set, err := source.FetchOptions(context.Background(), "deals", "deal_type")
	require.NoError(t, err)
	assert.Equal(t, attrkit.AttributeTypeSelect, set.AttributeType)
	assert.Equal(t, []attrkit.AttributeOption{
		{ID: "1", Title: "Demo"},
		{ID: "2", Title: "Legacy", Value: "legacy", IsArchived: true},
	}, set.Options)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_FetchOptions_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM "attribute_options" o`).
		WithArgs("deals", "name").
		WillReturnRows(pgxmock.NewRows([]string{"option_id", "title", "value", "is_archived", "type"}))

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	set, err := source.FetchOptions(context.Background(), "deals", "name")
	require.NoError(t, err)
	assert.Empty(t, set.Options)
}

func TestPostgresSchemaSource_ObjectTypes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT DISTINCT object_type FROM "attributes" ORDER BY object_type`).
		WithArgs().
		WillReturnRows(pgxmock.NewRows([]string{"object_type"}).AddRow("companies").AddRow("deals"))

	source := NewPostgresSchemaSource(mock, "attributes", "attribute_options")
	types, err := source.ObjectTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"companies", "deals"}, types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaSource_ThroughCaches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT slug, .+ FROM "attributes"`).
		WithArgs("deals").
		WillReturnRows(pgxmock.NewRows(attributeColumns).
			AddRow("deal_type", "Deal Type", "select", false, false, false, ""))
	mock.ExpectQuery(`FROM "attribute_options" o`).
		WithArgs("deals", "deal_type").
		WillReturnRows(pgxmock.NewRows([]string{"option_id", "title", "value", "is_archived", "type"}).
			AddRow("1", "Demo", "", false, "select"))

	engine := NewEngine(attrkit.DefaultConfig(), NewPostgresSchemaSource(mock, "attributes", "attribute_options"), nil)
	for range 3 {
		out, err := engine.ResolveAndTransform(context.Background(), "deals", attrkit.OperationUpdate, map[string]any{"deal_type": "Demo"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, out.Attributes["deal_type"])
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotTablesDDL(t *testing.T) {
	ddl := SnapshotTablesDDL("crm.attributes", "attribute_options")
	require.Len(t, ddl, 2)
	assert.True(t, strings.HasPrefix(ddl[0], `CREATE TABLE IF NOT EXISTS "crm"."attributes"`))
	assert.Contains(t, ddl[0], "PRIMARY KEY (object_type, slug)")
	assert.True(t, strings.HasPrefix(ddl[1], `CREATE TABLE IF NOT EXISTS "attribute_options"`))
	assert.Contains(t, ddl[1], "PRIMARY KEY (object_type, attribute_slug, option_id)")
}
