package testsupport

import (
	"path/filepath"
	"testing"

	"rekogexport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DestinationDir = filepath.Join(base, "export")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.AWS.Region = "eu-central-1"
	cfgVal.Rekognition.Project = "test-project"
	cfgVal.Export.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithProject sets the project name and clears explicit dataset ARNs.
func WithProject(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rekognition.Project = name
		b.cfg.Rekognition.TrainDatasetARN = ""
		b.cfg.Rekognition.TestDatasetARN = ""
	}
}

// WithDatasets sets explicit dataset ARNs. An empty ARN leaves that split unset.
func WithDatasets(trainARN, testARN string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rekognition.TrainDatasetARN = trainARN
		b.cfg.Rekognition.TestDatasetARN = testARN
	}
}

// WithLabelFormat overrides the label format and record shape.
func WithLabelFormat(format, shape string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.LabelFormat = format
		b.cfg.Export.RecordShape = shape
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DestinationDir)
}
