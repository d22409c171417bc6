package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/factory"
	"github.com/lychee-technology/attrkit/internal"
	"go.uber.org/zap"
)

// loadConfig overlays the JSON document at path onto the default configuration.
func loadConfig(path string) (*attrkit.Config, error) {
	config := attrkit.DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

func runCheckSource(args []string, out io.Writer) error {
	flags := newFlagSet("check-source", "check-source [-config attrkit.json] [-object <type>]")
	configPath := flags.String("config", getenvDefault("ATTRKIT_CONFIG", ""), "Path to a JSON config file (defaults apply to unset keys)")
	objectType := flags.String("object", "", "Also load the schema of this object type")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()

	source, closeFn, err := factory.NewSourceFromConfig(ctx, config)
	if err != nil {
		return err
	}
	defer closeFn()

	if checker, ok := source.(internal.HealthChecker); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s source unhealthy: %w", config.Source.Kind, err)
		}
	}
	fmt.Fprintf(out, "source %s: ok\n", config.Source.Kind)

	if *objectType != "" {
		attrs, err := source.FetchAttributes(ctx, *objectType)
		if err != nil {
			return err
		}
		zap.S().Debugw("loaded schema", "object_type", *objectType, "attributes", len(attrs))
		fmt.Fprintf(out, "%s: %d attributes\n", *objectType, len(attrs))
	}
	return nil
}
