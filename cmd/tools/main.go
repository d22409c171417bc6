package main

import (
	"fmt"
	"os"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logging := attrkit.DefaultConfig().Logging
	logging.Level = getenvDefault("LOG_LEVEL", logging.Level)
	logging.Format = getenvDefault("LOG_FORMAT", "console")

	logger, err := newLogger(logging)
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "transform":
		if err := runTransform(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			sugar.Fatalf("transform: %v", err)
		}
	case "filters":
		if err := runFilters(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			sugar.Fatalf("filters: %v", err)
		}
	case "inspect-schema":
		if err := runInspectSchema(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("inspect-schema: %v", err)
		}
	case "generate-snapshot":
		if err := runGenerateSnapshot(os.Args[2:]); err != nil {
			sugar.Fatalf("generate-snapshot: %v", err)
		}
	case "check-source":
		if err := runCheckSource(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("check-source: %v", err)
		}
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newLogger builds a zap logger from the logging section of the config.
func newLogger(cfg attrkit.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: attrkit-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  transform          Resolve and transform a JSON attribute payload against a schema directory")
	logger.Info("  filters            Convert a JSON filter set into the remote query document")
	logger.Info("  inspect-schema     List object types, attributes and options of a schema directory")
	logger.Info("  generate-snapshot  Derive an attribute snapshot from a JSON schema, merging with an existing one")
	logger.Info("  check-source       Verify the configured schema source is reachable")
	logger.Info("  init-db            Create the PostgreSQL snapshot tables and optionally seed them from a schema directory")
}
