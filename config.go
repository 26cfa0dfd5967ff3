package snapcheck

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is looked up by the CLI when --config is not given.
const DefaultConfigFile = "snapcheck.yaml"

// Config represents the SnapCheck configuration
type Config struct {
	Dialect    string              `yaml:"dialect"`
	Databases  map[string]Database `yaml:"databases"`
	Workbook   WorkbookConfig      `yaml:"workbook"`
	Registry   RegistryConfig      `yaml:"registry"`
	Validation ValidationConfig    `yaml:"validation"`
	Execution  ExecutionConfig     `yaml:"execution"`
	Quality    QualityConfig       `yaml:"quality"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
}

// WorkbookConfig points to the test-definition workbook
type WorkbookConfig struct {
	// Location is a file path or an afs URL (file://, s3://, gs://, https://)
	Location        string `yaml:"location"`
	ControllerSheet string `yaml:"controller_sheet"`
}

// RegistryConfig holds the allow-lists consulted by the definition validator
type RegistryConfig struct {
	Applications []string `yaml:"applications"`
	Environments []string `yaml:"environments"`
	IDPattern    string   `yaml:"id_pattern"`
}

// ValidationConfig represents definition validation limits
type ValidationConfig struct {
	MaxDescription        int `yaml:"max_description"`
	MaxPrerequisites      int `yaml:"max_prerequisites"`
	MinTimeout            int `yaml:"min_timeout"`
	MaxTimeout            int `yaml:"max_timeout"`
	PerformanceMinTimeout int `yaml:"performance_min_timeout"`
}

// ExecutionConfig represents dispatcher and comparison defaults
type ExecutionConfig struct {
	Environment    string `yaml:"environment"`
	TargetPrefix   string `yaml:"target_prefix"`
	DefaultTimeout int    `yaml:"default_timeout"`
	SampleLimit    int    `yaml:"sample_limit"`
}

// QualityConfig overrides the severity assigned to each data-quality check
type QualityConfig struct {
	Duplicates    string `yaml:"duplicates"`
	Orphans       string `yaml:"orphans"`
	InvalidValues string `yaml:"invalid_values"`
	MissingData   string `yaml:"missing_data"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parseConfig(data)
}

// parseConfig decodes, validates and completes a YAML document
func parseConfig(data []byte) (*Config, error) {
	var config Config

	// Strict mode rejects unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" {
		if _, err := ParseDialect(config.Dialect); err != nil {
			return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, sqlite", ErrConfigValidation, config.Dialect)
		}
	}

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: databases.%s: connection is required", ErrConfigValidation, name)
		}

		if db.Driver != "" {
			if _, err := ParseDialect(db.Driver); err != nil {
				return fmt.Errorf("%w: databases.%s: unsupported driver '%s'", ErrConfigValidation, name, db.Driver)
			}
		}
	}

	if config.Registry.IDPattern != "" {
		if _, err := regexp.Compile(config.Registry.IDPattern); err != nil {
			return fmt.Errorf("%w: registry.id_pattern: %v", ErrConfigValidation, err)
		}
	}

	v := config.Validation
	for name, value := range map[string]int{
		"max_description":         v.MaxDescription,
		"max_prerequisites":       v.MaxPrerequisites,
		"min_timeout":             v.MinTimeout,
		"max_timeout":             v.MaxTimeout,
		"performance_min_timeout": v.PerformanceMinTimeout,
	} {
		if value < 0 {
			return fmt.Errorf("%w: validation.%s must be non-negative, got %d", ErrConfigValidation, name, value)
		}
	}

	if v.MinTimeout > 0 && v.MaxTimeout > 0 && v.MinTimeout > v.MaxTimeout {
		return fmt.Errorf("%w: validation.min_timeout (%d) exceeds validation.max_timeout (%d)", ErrConfigValidation, v.MinTimeout, v.MaxTimeout)
	}

	if config.Execution.DefaultTimeout < 0 {
		return fmt.Errorf("%w: execution.default_timeout must be non-negative, got %d", ErrConfigValidation, config.Execution.DefaultTimeout)
	}

	if config.Execution.SampleLimit < 0 {
		return fmt.Errorf("%w: execution.sample_limit must be non-negative, got %d", ErrConfigValidation, config.Execution.SampleLimit)
	}

	q := config.Quality
	for name, value := range map[string]string{
		"duplicates":     q.Duplicates,
		"orphans":        q.Orphans,
		"invalid_values": q.InvalidValues,
		"missing_data":   q.MissingData,
	} {
		switch strings.ToUpper(value) {
		case "", "HIGH", "MEDIUM", "LOW":
		default:
			return fmt.Errorf("%w: quality.%s '%s' is invalid: must be one of HIGH, MEDIUM, LOW", ErrConfigValidation, name, value)
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	return config
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = string(DialectPostgres)
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Workbook.ControllerSheet == "" {
		config.Workbook.ControllerSheet = "CONTROLLER"
	}

	if len(config.Registry.Applications) == 0 {
		config.Registry.Applications = []string{"DUMMY", "MYAPP", "POSTGRES", "DATABASE"}
	}

	if len(config.Registry.Environments) == 0 {
		config.Registry.Environments = []string{"DEV", "STAGING", "PROD", "TEST", "UAT"}
	}

	if config.Registry.IDPattern == "" {
		config.Registry.IDPattern = `^[A-Z_]+_\d{3}$`
	}

	// Apply default validation limits
	if config.Validation.MaxDescription == 0 {
		config.Validation.MaxDescription = 500
	}

	if config.Validation.MaxPrerequisites == 0 {
		config.Validation.MaxPrerequisites = 1000
	}

	if config.Validation.MinTimeout == 0 {
		config.Validation.MinTimeout = 5
	}

	if config.Validation.MaxTimeout == 0 {
		config.Validation.MaxTimeout = 3600
	}

	if config.Validation.PerformanceMinTimeout == 0 {
		config.Validation.PerformanceMinTimeout = 30
	}

	// Apply default execution settings
	if config.Execution.TargetPrefix == "" {
		config.Execution.TargetPrefix = "new_"
	}

	if config.Execution.DefaultTimeout == 0 {
		config.Execution.DefaultTimeout = 60
	}

	if config.Execution.SampleLimit == 0 {
		config.Execution.SampleLimit = 10
	}

	// Apply default data-quality severities
	q := &config.Quality
	q.Duplicates = defaultSeverity(q.Duplicates, "HIGH")
	q.Orphans = defaultSeverity(q.Orphans, "HIGH")
	q.InvalidValues = defaultSeverity(q.InvalidValues, "MEDIUM")
	q.MissingData = defaultSeverity(q.MissingData, "LOW")
}

func defaultSeverity(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return strings.ToUpper(value)
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in connection settings and the workbook location
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		db.Schema = expandEnvVars(db.Schema)
		config.Databases[name] = db
	}

	config.Workbook.Location = expandEnvVars(config.Workbook.Location)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Database returns the connection settings for the named environment.
// An empty name selects the execution environment, then the only configured database.
func (c *Config) Database(name string) (Database, error) {
	if name == "" {
		name = c.Execution.Environment
	}

	if name == "" && len(c.Databases) == 1 {
		for _, db := range c.Databases {
			return db, nil
		}
	}

	db, ok := c.Databases[name]
	if !ok {
		return Database{}, fmt.Errorf("%w: '%s'", ErrEnvironmentNotFound, name)
	}

	return db, nil
}

// DatabaseDialect returns the dialect of db, falling back to the configured default.
func (c *Config) DatabaseDialect(db Database) (Dialect, error) {
	if db.Driver != "" {
		return ParseDialect(db.Driver)
	}

	return ParseDialect(c.Dialect)
}
