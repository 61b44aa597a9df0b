package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/spf13/cobra"

	"rekogexport/internal/config"
	"rekogexport/internal/dataset"
	"rekogexport/internal/services/rekog"
	"rekogexport/internal/testsupport"
)

const (
	trainARN = "arn:aws:rekognition:eu-central-1:1:project/pens/dataset/train/1"
	testARN  = "arn:aws:rekognition:eu-central-1:1:project/pens/dataset/test/1"
)

type cliTestEnv struct {
	cfg         *config.Config
	configPath  string
	region      string
	credentials *credentials.Credentials
	lister      *testsupport.Lister
	resolver    *testsupport.Resolver
	fetcher     *testsupport.Fetcher
	depsCalls   int
}

var errSessionStub = errors.New("no region")

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("REKOGEXPORT_PROJECT", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_PROFILE", "")

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithProject("pens")}, opts...)...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		lister: &testsupport.Lister{Datasets: map[string][]string{
			trainARN: {
				testsupport.AnnotatedEntry("s3://bucket/a.jpg", 100, 50, testsupport.Box{Class: "pen", Left: 10, Top: 10, Width: 20, Height: 10}),
				testsupport.NegativeEntry("s3://bucket/neg.jpg"),
				testsupport.AnnotatedEntry("s3://bucket/b.png", 200, 100,
					testsupport.Box{Class: "cap", Left: 0, Top: 0, Width: 50, Height: 50},
					testsupport.Box{Class: "pen", Left: 100, Top: 50, Width: 10, Height: 10},
				),
			},
			testARN: {
				testsupport.AnnotatedEntry("s3://bucket/t.jpg", 64, 64, testsupport.Box{Class: "eraser", Left: 0, Top: 0, Width: 64, Height: 64}),
			},
		}},
		resolver: &testsupport.Resolver{Project: "pens", Refs: []rekog.DatasetRef{
			{Split: dataset.SplitTrain, ARN: trainARN},
			{Split: dataset.SplitTest, ARN: testARN},
		}},
		fetcher: &testsupport.Fetcher{},
	}
}

func (e *cliTestEnv) deps(*config.Config, *slog.Logger) (remoteDeps, error) {
	e.depsCalls++
	deps := remoteDeps{region: e.region, lister: e.lister, resolver: e.resolver, fetcher: e.fetcher}
	if e.credentials != nil {
		deps.credentials = e.credentials
	}
	return deps, nil
}

func captureOutput(cmd *cobra.Command) (*bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return &stdout, &stderr
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithDeps(env.deps)
	stdout, stderr := captureOutput(cmd)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
destination_dir = %q
log_dir = %q

[aws]
region = %q

[rekognition]
project = %q
train_dataset_arn = %q
test_dataset_arn = %q

[export]
workers = %d
label_format = %q
record_shape = %q

[logging]
level = "error"
`,
		cfg.Paths.DestinationDir,
		cfg.Paths.LogDir,
		cfg.AWS.Region,
		cfg.Rekognition.Project,
		cfg.Rekognition.TrainDatasetARN,
		cfg.Rekognition.TestDatasetARN,
		cfg.Export.Workers,
		cfg.Export.LabelFormat,
		cfg.Export.RecordShape,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
	return string(data)
}
