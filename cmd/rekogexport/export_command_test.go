package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rekogexport/internal/materialize"
	"rekogexport/internal/services"
	"rekogexport/internal/testsupport"
)

func TestExportCommandWritesYOLOLayout(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "export", "--no-progress")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Train (train)")
	requireContains(t, out, "Test (val)")
	requireContains(t, out, "exported 2 splits to "+env.cfg.Paths.DestinationDir)

	dest := env.cfg.Paths.DestinationDir
	if got := requireFile(t, filepath.Join(dest, "train", "labels", "classes.txt")); got != "cap\npen\n" {
		t.Fatalf("unexpected train classes %q", got)
	}
	label := requireFile(t, filepath.Join(dest, "train", "labels", materialize.SourceStem("s3://bucket/a.jpg")+".txt"))
	if label != "1 0.2 0.3 0.2 0.2\n" {
		t.Fatalf("unexpected label %q", label)
	}
	requireFile(t, filepath.Join(dest, "train", "images", materialize.SourceStem("s3://bucket/neg.jpg")+".jpg"))
	if _, err := os.Stat(filepath.Join(dest, "train", "labels", materialize.SourceStem("s3://bucket/neg.jpg")+".txt")); !os.IsNotExist(err) {
		t.Fatalf("negative image must not get a label file, stat err=%v", err)
	}
	if got := requireFile(t, filepath.Join(dest, "val", "labels", "classes.txt")); got != "eraser\n" {
		t.Fatalf("unexpected val classes %q", got)
	}
	if len(env.fetcher.Fetched()) != 4 {
		t.Fatalf("expected 4 downloads, got %v", env.fetcher.Fetched())
	}
}

func TestExportCommandJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "export", "--json")
	if err != nil {
		t.Fatalf("export --json: %v", err)
	}
	var view exportView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if view.RunID == "" || len(view.Splits) != 2 {
		t.Fatalf("unexpected report %+v", view)
	}
	train := view.Splits[0]
	if train.Split != "TRAIN" || train.Entries != 3 || train.Images != 3 || train.Labels != 2 || train.Boxes != 3 {
		t.Fatalf("unexpected train split %+v", train)
	}
	if train.DatasetARN != trainARN {
		t.Fatalf("expected dataset arn %s, got %s", trainARN, train.DatasetARN)
	}
	if view.Splits[1].Directory != filepath.Join(env.cfg.Paths.DestinationDir, "val") {
		t.Fatalf("unexpected val directory %s", view.Splits[1].Directory)
	}
}

func TestExportCommandFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(t.TempDir(), "elsewhere")

	_, _, err := runCLI(t, env, "export", "--no-progress", "--split", "val", "--format", "pixel", "--dest", other, "--workers", "1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(other, "train")); !os.IsNotExist(err) {
		t.Fatalf("train split should be filtered out, stat err=%v", err)
	}
	label := requireFile(t, filepath.Join(other, "val", "labels", materialize.SourceStem("s3://bucket/t.jpg")+".txt"))
	if label != "0 0 0 64 64\n" {
		t.Fatalf("unexpected pixel label %q", label)
	}
	entries, err := os.ReadDir(env.cfg.Paths.DestinationDir)
	if err != nil {
		t.Fatalf("read configured destination: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("configured destination should stay empty, found %d entries", len(entries))
	}
}

func TestExportCommandExplicitDatasets(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithDatasets("", testARN))
	env.resolver.Project = "unused"

	out, _, err := runCLI(t, env, "export", "--json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var view exportView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(view.Splits) != 1 || view.Splits[0].Split != "TEST" {
		t.Fatalf("expected only the configured TEST dataset, got %+v", view.Splits)
	}
}

func TestExportCommandProjectFlagOverridesARNs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithDatasets("", testARN))

	out, _, err := runCLI(t, env, "export", "--json", "--project", "pens")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var view exportView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(view.Splits) != 2 {
		t.Fatalf("expected project discovery to return both splits, got %+v", view.Splits)
	}
}

func TestExportCommandRequiresDatasetSource(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithProject(""))

	_, _, err := runCLI(t, env, "export")
	if err == nil {
		t.Fatal("expected error without project or dataset ARNs")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "REKOGEXPORT_PROJECT")
	if env.depsCalls != 0 {
		t.Fatalf("AWS clients must not be built before the config is usable")
	}
}

func TestExportCommandRejectsBadFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "export", "--format", "coco")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "label_format")
}

func TestExportCommandFetchFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fetcher.Missing = map[string]bool{"b.png": true}

	_, _, err := runCLI(t, env, "export", "--no-progress")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	out, _, err := runCLI(t, env, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "failed" || runs[0].FailureKind != "fetch" {
		t.Fatalf("expected one failed fetch run, got %+v", runs)
	}
}
