package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/factory"
	"github.com/lychee-technology/attrkit/internal"
	"go.uber.org/zap"
)

type engineFlags struct {
	schemaDir  string
	objectType string
	input      string
}

func (f *engineFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&f.schemaDir, "schema-dir", getenvDefault("SCHEMA_DIR", "schemas"), "Directory containing <object>_attributes.json files")
	flags.StringVar(&f.objectType, "object", "", "Object type, e.g. companies")
	flags.StringVar(&f.input, "in", "", "Path to the JSON input (defaults to stdin)")
}

func newFlagSet(name, usage string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		zap.S().Info("Usage: attrkit-tools " + usage)
		zap.S().Info("")
		zap.S().Info("Options:")
		flags.PrintDefaults()
	}
	return flags
}

func newFileEngine(schemaDir string) (attrkit.Engine, error) {
	config := attrkit.DefaultConfig()
	config.Source.Kind = attrkit.SourceKindFile
	config.Source.Directory = schemaDir
	return factory.NewEngineWithConfig(config, internal.NewFileSchemaSource(schemaDir), nil)
}

func readInput(path string, stdin io.Reader, v any) error {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("parse input JSON: %w", err)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type transformReport struct {
	Attributes map[string]any   `json:"attributes"`
	Warnings   []string         `json:"warnings,omitempty"`
	Errors     []*attrkit.Error `json:"errors,omitempty"`
}

func runTransform(args []string, stdin io.Reader, out io.Writer) error {
	flags := newFlagSet("transform", "transform -object <type> [-op create|update] [-in payload.json]")
	var ef engineFlags
	ef.register(flags)
	op := flags.String("op", string(attrkit.OperationCreate), "Write operation: create or update")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if ef.objectType == "" {
		return fmt.Errorf("-object is required")
	}
	operation := attrkit.Operation(*op)
	if operation != attrkit.OperationCreate && operation != attrkit.OperationUpdate {
		return fmt.Errorf("-op must be create or update, got %q", *op)
	}

	var raw map[string]any
	if err := readInput(ef.input, stdin, &raw); err != nil {
		return err
	}
	engine, err := newFileEngine(ef.schemaDir)
	if err != nil {
		return err
	}

	result, err := engine.ResolveAndTransform(context.Background(), ef.objectType, operation, raw)
	if result == nil {
		if err != nil {
			return err
		}
		result = &attrkit.TransformOutput{}
	}
	report := transformReport{Attributes: result.Attributes, Warnings: result.Warnings}
	var verrs attrkit.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		report.Errors = verrs
	case err != nil:
		return err
	}
	if err := writeJSON(out, report); err != nil {
		return err
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("%d attribute(s) failed", len(report.Errors))
	}
	return nil
}

func runFilters(args []string, stdin io.Reader, out io.Writer) error {
	flags := newFlagSet("filters", "filters -object <type> [-in filters.json] [-skip-condition-validation]")
	var ef engineFlags
	ef.register(flags)
	skipValidation := flags.Bool("skip-condition-validation", false, "Pass unknown conditions through as $<condition>")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if ef.objectType == "" {
		return fmt.Errorf("-object is required")
	}

	var set attrkit.FilterSet
	if err := readInput(ef.input, stdin, &set); err != nil {
		return err
	}
	engine, err := newFileEngine(ef.schemaDir)
	if err != nil {
		return err
	}

	var opts []attrkit.FilterOption
	if *skipValidation {
		opts = append(opts, attrkit.WithoutConditionValidation())
	}
	doc, err := engine.TransformFilters(context.Background(), ef.objectType, set, opts...)
	if err != nil {
		return err
	}
	return writeJSON(out, doc)
}

func runInspectSchema(args []string, out io.Writer) error {
	flags := newFlagSet("inspect-schema", "inspect-schema [-object <type>]")
	var ef engineFlags
	ef.register(flags)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	source := internal.NewFileSchemaSource(ef.schemaDir)
	ctx := context.Background()

	if ef.objectType == "" {
		types, err := source.ObjectTypes()
		if err != nil {
			return err
		}
		for _, t := range types {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	attrs, err := source.FetchAttributes(ctx, ef.objectType)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tTYPE\tFLAGS\tOPTIONS")
	for _, attr := range attrs {
		var options []string
		if attr.Type.IsChoice() {
			set, err := source.FetchOptions(ctx, ef.objectType, attr.Slug)
			if err != nil {
				return err
			}
			for _, opt := range set.Options {
				if !opt.IsArchived {
					options = append(options, opt.Title)
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", attr.Slug, attr.Title, attr.Type, attributeFlags(attr), joinLimited(options, 5))
	}
	return tw.Flush()
}

func attributeFlags(attr attrkit.AttributeMetadata) string {
	flags := ""
	add := func(on bool, name string) {
		if !on {
			return
		}
		if flags != "" {
			flags += ","
		}
		flags += name
	}
	add(attr.IsRequired, "required")
	add(attr.IsUnique, "unique")
	add(attr.IsMultiselect, "multi")
	if attr.Relationship != nil {
		add(true, "->"+attr.Relationship.TargetObjectSlug)
	}
	if flags == "" {
		return "-"
	}
	return flags
}

func joinLimited(values []string, limit int) string {
	if len(values) == 0 {
		return "-"
	}
	s := ""
	for i, v := range values {
		if i == limit {
			return fmt.Sprintf("%s (+%d more)", s, len(values)-limit)
		}
		if i > 0 {
			s += ", "
		}
		s += v
	}
	return s
}
