package main

import (
	"encoding/json"
	"os"
	"testing"
)

func TestClassesCommandListsIndexWithoutDownloading(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "classes")
	if err != nil {
		t.Fatalf("classes: %v", err)
	}
	requireContains(t, out, "Train (train) (3 images, 1 negative, 3 entries)")
	requireContains(t, out, "Test (val) (1 image, 0 negatives, 1 entry)")
	requireContains(t, out, "cap")
	requireContains(t, out, "eraser")

	if got := env.fetcher.Fetched(); len(got) != 0 {
		t.Fatalf("classes must not download images, fetched %v", got)
	}
	entries, err := os.ReadDir(env.cfg.Paths.DestinationDir)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("classes must not write files, found %d entries", len(entries))
	}
}

func TestClassesCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "classes", "--json", "--split", "train")
	if err != nil {
		t.Fatalf("classes --json: %v", err)
	}
	var views []splitClassesView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode classes: %v\n%s", err, out)
	}
	if len(views) != 1 || views[0].Split != "TRAIN" {
		t.Fatalf("expected only TRAIN, got %+v", views)
	}
	want := []classView{{Index: 0, Name: "cap", Boxes: 1}, {Index: 1, Name: "pen", Boxes: 2}}
	if len(views[0].Classes) != len(want) {
		t.Fatalf("unexpected classes %+v", views[0].Classes)
	}
	for i, c := range want {
		if views[0].Classes[i] != c {
			t.Fatalf("class %d: want %+v, got %+v", i, c, views[0].Classes[i])
		}
	}
	if views[0].Negatives != 1 || views[0].Images != 3 {
		t.Fatalf("unexpected counts %+v", views[0])
	}
}
