package attrkit

// Config consolidates engine and source settings
type Config struct {
	Resolver ResolverConfig `json:"resolver"`
	Options  OptionConfig   `json:"options"`
	Filter   FilterConfig   `json:"filter"`
	Retry    RetryConfig    `json:"retry"`
	Logging  LoggingConfig  `json:"logging"`
	Source   SourceConfig   `json:"source"`
}

// ResolverConfig contains attribute name resolution settings
type ResolverConfig struct {
	MaxSuggestions int `json:"maxSuggestions"`
}

// OptionConfig contains choice-attribute settings
type OptionConfig struct {
	MaxListedOptions int `json:"maxListedOptions"`
}

// FilterConfig contains filter transformation settings
type FilterConfig struct {
	ValidateConditions   bool `json:"validateConditions"`
	ValidateOptionValues bool `json:"validateOptionValues"`
}

// RetryConfig contains creation retry settings
type RetryConfig struct {
	Enabled          bool  `json:"enabled"`
	RetryStatusCodes []int `json:"retryStatusCodes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SourceKind selects the schema source implementation.
type SourceKind string

const (
	SourceKindFile     SourceKind = "file"
	SourceKindPostgres SourceKind = "postgres"
	SourceKindS3       SourceKind = "s3"
)

// SourceConfig selects and configures the schema/option source.
type SourceConfig struct {
	Kind      SourceKind     `json:"kind"`
	Directory string         `json:"directory"`
	Postgres  PostgresConfig `json:"postgres"`
	S3        S3Config       `json:"s3"`
}

// PostgresConfig contains settings for the Postgres-backed source
type PostgresConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Database        string `json:"database"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	SSLMode         string `json:"sslMode"`
	UseIAM          bool   `json:"useIAM"`
	Region          string `json:"region"`
	AttributesTable string `json:"attributesTable"`
	OptionsTable    string `json:"optionsTable"`
}

// S3Config contains settings for the S3-backed source
type S3Config struct {
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			MaxSuggestions: 3,
		},
		Options: OptionConfig{
			MaxListedOptions: 15,
		},
		Filter: FilterConfig{
			ValidateConditions:   true,
			ValidateOptionValues: true,
		},
		Retry: RetryConfig{
			Enabled:          true,
			RetryStatusCodes: []int{400, 422},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: SourceConfig{
			Kind:      SourceKindFile,
			Directory: "schemas",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				SSLMode:         "disable",
				AttributesTable: "attributes",
				OptionsTable:    "attribute_options",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Resolver.MaxSuggestions < 0 {
		return &ConfigError{Field: "resolver.maxSuggestions", Message: "must not be negative"}
	}

	if c.Options.MaxListedOptions <= 0 {
		return &ConfigError{Field: "options.maxListedOptions", Message: "must be greater than 0"}
	}

	for _, code := range c.Retry.RetryStatusCodes {
		if code < 400 || code > 499 {
			return &ConfigError{Field: "retry.retryStatusCodes", Message: "only 4xx status codes can trigger a retry"}
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'json' or 'console'"}
	}

	switch c.Source.Kind {
	case SourceKindFile:
		if c.Source.Directory == "" {
			return &ConfigError{Field: "source.directory", Message: "is required for file sources"}
		}
	case SourceKindPostgres:
		if c.Source.Postgres.Host == "" || c.Source.Postgres.Database == "" {
			return &ConfigError{Field: "source.postgres", Message: "host and database are required"}
		}
		if c.Source.Postgres.AttributesTable == "" || c.Source.Postgres.OptionsTable == "" {
			return &ConfigError{Field: "source.postgres", Message: "attributesTable and optionsTable are required"}
		}
		if c.Source.Postgres.UseIAM && c.Source.Postgres.Region == "" {
			return &ConfigError{Field: "source.postgres.region", Message: "is required when useIAM is enabled"}
		}
	case SourceKindS3:
		if c.Source.S3.Bucket == "" {
			return &ConfigError{Field: "source.s3.bucket", Message: "is required for s3 sources"}
		}
		if (c.Source.S3.AccessKey == "") != (c.Source.S3.SecretKey == "") {
			return &ConfigError{Field: "source.s3", Message: "accessKey and secretKey must be provided together"}
		}
	default:
		return &ConfigError{Field: "source.kind", Message: "must be one of file, postgres, s3"}
	}

	return nil
}

// RetryOn reports whether a rejection status code is eligible for the format retry.
func (r RetryConfig) RetryOn(statusCode int) bool {
	if !r.Enabled {
		return false
	}
	for _, code := range r.RetryStatusCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
