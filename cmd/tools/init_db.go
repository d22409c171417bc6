package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/internal"
)

type initDBOptions struct {
	host            string
	port            int
	database        string
	user            string
	password        string
	sslMode         string
	attributesTable string
	optionsTable    string
	schemaDir       string
}

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: attrkit-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	defaults := attrkit.DefaultConfig().Source.Postgres
	opts := initDBOptions{}
	flags.StringVar(&opts.host, "db-host", getenvDefault("DB_HOST", defaults.Host), "database host")
	flags.IntVar(&opts.port, "db-port", getenvDefaultInt("DB_PORT", defaults.Port), "database port")
	flags.StringVar(&opts.database, "db-name", getenvDefault("DB_NAME", "attrkit"), "database name")
	flags.StringVar(&opts.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.password, "db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	flags.StringVar(&opts.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", defaults.SSLMode), "database sslmode")
	flags.StringVar(&opts.attributesTable, "attributes-table", getenvDefault("ATTRIBUTES_TABLE", defaults.AttributesTable), "attributes table name")
	flags.StringVar(&opts.optionsTable, "options-table", getenvDefault("OPTIONS_TABLE", defaults.OptionsTable), "attribute options table name")
	flags.StringVar(&opts.schemaDir, "schema-dir", getenvDefault("SCHEMA_DIR", ""), "Directory of <object>_attributes.json snapshots to load (optional)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return initDatabase(opts)
}

func initDatabase(opts initDBOptions) error {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, buildConnString(opts))
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		for _, ddl := range internal.SnapshotTablesDDL(opts.attributesTable, opts.optionsTable) {
			if _, err := tx.Exec(ctx, ddl); err != nil {
				return fmt.Errorf("ensure snapshot tables: %w", err)
			}
		}
		fmt.Printf("Created snapshot tables: %s, %s\n", opts.attributesTable, opts.optionsTable)

		if opts.schemaDir != "" {
			return loadSnapshots(ctx, tx, opts)
		}
		return nil
	}); err != nil {
		return err
	}

	fmt.Println("Database initialized successfully.")
	return nil
}

func buildConnString(opts initDBOptions) string {
	hostPort := fmt.Sprintf("%s:%d", opts.host, opts.port)

	var userInfo *url.Userinfo
	if opts.password != "" {
		userInfo = url.UserPassword(opts.user, opts.password)
	} else {
		userInfo = url.User(opts.user)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   hostPort,
		Path:   "/" + opts.database,
	}

	q := url.Values{}
	if opts.sslMode != "" {
		q.Set("sslmode", opts.sslMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// loadSnapshots copies every file snapshot in opts.schemaDir into the snapshot tables,
// replacing the rows of each object type it loads.
func loadSnapshots(ctx context.Context, tx pgx.Tx, opts initDBOptions) error {
	source := internal.NewFileSchemaSource(opts.schemaDir)
	objectTypes, err := source.ObjectTypes()
	if err != nil {
		return err
	}
	if len(objectTypes) == 0 {
		fmt.Printf("No attribute snapshots found, dir: %s\n", opts.schemaDir)
		return nil
	}

	attrsTable := quoteIdentifier(opts.attributesTable)
	optsTable := quoteIdentifier(opts.optionsTable)

	for _, objectType := range objectTypes {
		attrs, err := source.FetchAttributes(ctx, objectType)
		if err != nil {
			return err
		}
		for _, table := range []string{attrsTable, optsTable} {
			if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE object_type = $1`, table), objectType); err != nil {
				return fmt.Errorf("clear %s rows of %s: %w", table, objectType, err)
			}
		}

		options := 0
		for pos, attr := range attrs {
			var target *string
			if attr.Relationship != nil {
				target = &attr.Relationship.TargetObjectSlug
			}
			if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
				(object_type, slug, title, type, is_required, is_unique, is_multiselect, target_object, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, attrsTable),
				objectType, attr.Slug, attr.Title, string(attr.Type), attr.IsRequired, attr.IsUnique, attr.IsMultiselect, target, pos); err != nil {
				return fmt.Errorf("insert attribute %s.%s: %w", objectType, attr.Slug, err)
			}

			if !attr.Type.IsChoice() {
				continue
			}
			set, err := source.FetchOptions(ctx, objectType, attr.Slug)
			if err != nil {
				return err
			}
			for optPos, opt := range set.Options {
				if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
					(object_type, attribute_slug, option_id, title, value, is_archived, position)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`, optsTable),
					objectType, attr.Slug, opt.ID, opt.Title, opt.Value, opt.IsArchived, optPos); err != nil {
					return fmt.Errorf("insert option %s.%s/%s: %w", objectType, attr.Slug, opt.ID, err)
				}
				options++
			}
		}
		fmt.Printf("Loaded snapshot, object: %s, attributes: %d, options: %d\n", objectType, len(attrs), options)
	}
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func quoteIdentifier(name string) string {
	return pgx.Identifier(splitIdentifier(name)).Sanitize()
}

func splitIdentifier(name string) []string {
	parts := strings.Split(name, ".")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return []string{name}
	}
	return result
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
