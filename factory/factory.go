package factory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/internal"
	"go.uber.org/zap"
)

// NewEngineWithConfig creates an Engine over the provided source.
// This is the primary way for external projects to create an Engine instance.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/attrkit"
//	    "github.com/lychee-technology/attrkit/factory"
//	)
//
//	config := attrkit.DefaultConfig()
//	engine, err := factory.NewEngineWithConfig(config, source, submitter)
//	if err != nil {
//	    // handle error
//	}
//
// submitter may be nil when SubmitWithRetry is never called.
func NewEngineWithConfig(config *attrkit.Config, source attrkit.Source, submitter attrkit.WriteSubmitter) (attrkit.Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source is required: please provide a Source implementation or use NewEngineFromConfig")
	}
	return internal.NewEngine(config, source, submitter), nil
}

// NewEngineFromConfig builds the source described by config.Source and wires it into a new Engine.
// The returned close function releases the source's resources.
func NewEngineFromConfig(ctx context.Context, config *attrkit.Config, submitter attrkit.WriteSubmitter) (attrkit.Engine, func(), error) {
	if config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	source, closeFn, err := NewSourceFromConfig(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	engine, err := NewEngineWithConfig(config, source, submitter)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return engine, closeFn, nil
}

// NewSourceFromConfig creates the schema/option source selected by config.Source.Kind.
func NewSourceFromConfig(ctx context.Context, config *attrkit.Config) (attrkit.Source, func(), error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	noop := func() {}

	switch config.Source.Kind {
	case attrkit.SourceKindFile:
		zap.S().Infow("using file schema source", "directory", config.Source.Directory)
		return internal.NewFileSchemaSource(config.Source.Directory), noop, nil

	case attrkit.SourceKindPostgres:
		pool, err := NewPostgresPool(ctx, config.Source.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pg := config.Source.Postgres
		zap.S().Infow("using postgres schema source", "host", pg.Host, "database", pg.Database, "attributes_table", pg.AttributesTable)
		return internal.NewPostgresSchemaSource(pool, pg.AttributesTable, pg.OptionsTable), pool.Close, nil

	case attrkit.SourceKindS3:
		client, err := internal.NewS3Client(ctx, config.Source.S3)
		if err != nil {
			return nil, nil, err
		}
		zap.S().Infow("using s3 schema source", "bucket", config.Source.S3.Bucket, "prefix", config.Source.S3.Prefix)
		return internal.NewS3SchemaSource(client, config.Source.S3.Bucket, config.Source.S3.Prefix), noop, nil

	default:
		return nil, nil, &attrkit.ConfigError{Field: "source.kind", Message: fmt.Sprintf("unsupported source kind %q", config.Source.Kind)}
	}
}

// NewPostgresPool creates a lazily connecting pool. With UseIAM, every new
// connection authenticates with a freshly generated DSQL IAM token.
func NewPostgresPool(ctx context.Context, pg attrkit.PostgresConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		pg.Host, pg.Port, pg.Database, pg.Username, pg.SSLMode)
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.Password = pg.Password

	if pg.UseIAM {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(pg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := fmt.Sprintf("%s:%d", pg.Host, pg.Port)
		poolCfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
			if err != nil {
				zap.S().Warnw("failed to generate IAM auth token; falling back to configured password", "error", err)
				return nil
			}
			cc.Password = token
			return nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return pool, nil
}
