package internal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// queryPool is the part of *pgxpool.Pool the Postgres source uses.
type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSchemaSource reads workspace schema snapshots from two tables:
//
//	attributes(object_type, slug, title, type, is_required, is_unique, is_multiselect, target_object, position)
//	attribute_options(object_type, attribute_slug, option_id, title, value, is_archived, position)
type PostgresSchemaSource struct {
	pool       queryPool
	attributes string
	options    string
}

var _ attrkit.Source = (*PostgresSchemaSource)(nil)

// NewPostgresSchemaSource creates a source over the given tables.
func NewPostgresSchemaSource(pool queryPool, attributesTable, optionsTable string) *PostgresSchemaSource {
	return &PostgresSchemaSource{
		pool:       pool,
		attributes: sanitizeIdentifier(attributesTable),
		options:    sanitizeIdentifier(optionsTable),
	}
}

// FetchAttributes implements attrkit.SchemaSource. Attributes come back in position order.
func (s *PostgresSchemaSource) FetchAttributes(ctx context.Context, objectType string) ([]attrkit.AttributeMetadata, error) {
	query := fmt.Sprintf(`SELECT slug, COALESCE(title, ''), type, is_required, is_unique, is_multiselect, COALESCE(target_object, '')
		FROM %s WHERE object_type = $1 ORDER BY position, slug`, s.attributes)

	rows, err := s.pool.Query(ctx, query, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	var attrs []attrkit.AttributeMetadata
	for rows.Next() {
		var (
			meta    attrkit.AttributeMetadata
			rawType string
			target  string
		)
		if err := rows.Scan(&meta.Slug, &meta.Title, &rawType, &meta.IsRequired, &meta.IsUnique, &meta.IsMultiselect, &target); err != nil {
			return nil, fmt.Errorf("failed to scan attribute row: %w", err)
		}
		meta.Type = normalizeAttributeType(rawType)
		if target != "" {
			meta.Relationship = &attrkit.Relationship{TargetObjectSlug: target}
		}
		attrs = append(attrs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribute rows: %w", err)
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: no attributes for object type %s", attrkit.ErrNotFound, objectType)
	}

	zap.S().Debugw("loaded attributes from database", "object_type", objectType, "count", len(attrs))
	return attrs, nil
}

// FetchOptions implements attrkit.OptionSource.
func (s *PostgresSchemaSource) FetchOptions(ctx context.Context, objectType, attributeSlug string) (attrkit.OptionSet, error) {
	query := fmt.Sprintf(`SELECT o.option_id::text, COALESCE(o.title, ''), COALESCE(o.value, ''), o.is_archived, a.type
		FROM %s o JOIN %s a ON a.object_type = o.object_type AND a.slug = o.attribute_slug
		WHERE o.object_type = $1 AND o.attribute_slug = $2 ORDER BY o.position, o.option_id`, s.options, s.attributes)

	rows, err := s.pool.Query(ctx, query, objectType, attributeSlug)
	if err != nil {
		return attrkit.OptionSet{}, fmt.Errorf("failed to query attribute options: %w", err)
	}
	defer rows.Close()

	var set attrkit.OptionSet
	for rows.Next() {
		var (
			opt     attrkit.AttributeOption
			rawType string
		)
		if err := rows.Scan(&opt.ID, &opt.Title, &opt.Value, &opt.IsArchived, &rawType); err != nil {
			return attrkit.OptionSet{}, fmt.Errorf("failed to scan option row: %w", err)
		}
		set.AttributeType = normalizeAttributeType(rawType)
		set.Options = append(set.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return attrkit.OptionSet{}, fmt.Errorf("error iterating option rows: %w", err)
	}
	return set, nil
}

// ObjectTypes lists the object types present in the attributes table.
func (s *PostgresSchemaSource) ObjectTypes(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT object_type FROM %s ORDER BY object_type", s.attributes)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query object types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var objectType string
		if err := rows.Scan(&objectType); err != nil {
			return nil, fmt.Errorf("failed to scan object type row: %w", err)
		}
		types = append(types, objectType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating object type rows: %w", err)
	}
	return types, nil
}

// SnapshotTablesDDL returns the statements that create the tables read by PostgresSchemaSource.
func SnapshotTablesDDL(attributesTable, optionsTable string) []string {
	attrs := sanitizeIdentifier(attributesTable)
	opts := sanitizeIdentifier(optionsTable)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			object_type    TEXT NOT NULL,
			slug           TEXT NOT NULL,
			title          TEXT,
			type           TEXT NOT NULL,
			is_required    BOOLEAN NOT NULL DEFAULT FALSE,
			is_unique      BOOLEAN NOT NULL DEFAULT FALSE,
			is_multiselect BOOLEAN NOT NULL DEFAULT FALSE,
			target_object  TEXT,
			position       INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (object_type, slug)
		)`, attrs),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			object_type    TEXT NOT NULL,
			attribute_slug TEXT NOT NULL,
			option_id      TEXT NOT NULL,
			title          TEXT,
			value          TEXT,
			is_archived    BOOLEAN NOT NULL DEFAULT FALSE,
			position       INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (object_type, attribute_slug, option_id)
		)`, opts),
	}
}
