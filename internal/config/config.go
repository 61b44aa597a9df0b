package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains destination and log directory configuration.
type Paths struct {
	DestinationDir string `toml:"destination_dir" validate:"required"`
	LogDir         string `toml:"log_dir" validate:"required"`
}

// AWS contains the credentials profile and region used for every AWS client.
type AWS struct {
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
}

// Rekognition selects which labeled datasets are exported. Explicit dataset
// ARNs take precedence over project discovery.
type Rekognition struct {
	Project         string `toml:"project"`
	TrainDatasetARN string `toml:"train_dataset_arn" validate:"omitempty,startswith=arn:"`
	TestDatasetARN  string `toml:"test_dataset_arn" validate:"omitempty,startswith=arn:"`
	PageSize        int    `toml:"page_size" validate:"gte=1,lte=100"`

	// RequestsPerSecond caps Rekognition API calls; zero disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// Export contains materialization settings.
type Export struct {
	Workers     int    `toml:"workers" validate:"gte=1,lte=64"`
	LabelFormat string `toml:"label_format" validate:"oneof=yolo pixel"`
	RecordShape string `toml:"record_shape" validate:"oneof=dimensions boxes-only"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format" validate:"oneof=console json"`
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
}

// Config encapsulates all configuration values for the exporter.
//
// Configuration sections:
//   - Paths: export destination root and log/journal directory
//   - AWS: region and shared-credentials profile
//   - Rekognition: project or explicit dataset ARNs, listing page size
//   - Export: worker count, label line format, record shape
//   - Logging: log format, level, and file rotation
type Config struct {
	Paths       Paths       `toml:"paths"`
	AWS         AWS         `toml:"aws"`
	Rekognition Rekognition `toml:"rekognition"`
	Export      Export      `toml:"export"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, configError("parse config", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the destination root and log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DestinationDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the location of the run journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.LogDir, journalFileName)
}

// HasExplicitDatasets reports whether dataset ARNs bypass project discovery.
func (c *Config) HasExplicitDatasets() bool {
	return c.Rekognition.TrainDatasetARN != "" || c.Rekognition.TestDatasetARN != ""
}

// RequireDatasetSource ensures a project or at least one dataset ARN is set.
// Commands that only read local state skip this check.
func (c *Config) RequireDatasetSource() error {
	if c.Rekognition.Project != "" || c.HasExplicitDatasets() {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return configError("rekognition", fmt.Errorf("project or a dataset ARN is required. Set %s, pass --project, or edit %s (create with 'rekogexport config init')", envProject, defaultPath))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
