package dataset_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"rekogexport/internal/dataset"
	"rekogexport/internal/services"
)

const penEntry = `{"bb_BB": {"image_size":[{"width":100,"height":50,"depth":3}], "annotations":[{"class_id":0,"left":10,"top":10,"width":20,"height":10}]}, "bb_BB-metadata": {"class-map": {"0":"pen"}}, "source-ref": "s3://bucket/a.jpg"}`

func build(t *testing.T, shape dataset.RecordShape, entries ...string) (*dataset.Dataset, error) {
	t.Helper()
	raw := make([][]byte, 0, len(entries))
	for _, e := range entries {
		raw = append(raw, []byte(e))
	}
	return dataset.NewBuilder(shape, nil).Build(dataset.SplitTrain, raw)
}

func TestBuildAnnotatedEntry(t *testing.T) {
	ds, err := build(t, dataset.ShapeDimensions, penEntry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}
	rec := ds.Records[0]
	if rec.SourceURI != "s3://bucket/a.jpg" {
		t.Fatalf("unexpected source uri %q", rec.SourceURI)
	}
	if rec.Width != 100 || rec.Height != 50 || rec.Depth != 3 {
		t.Fatalf("unexpected dimensions %dx%dx%d", rec.Width, rec.Height, rec.Depth)
	}
	want := []dataset.BoundingBox{{Left: 10, Top: 10, Width: 20, Height: 10, Class: "pen"}}
	if !reflect.DeepEqual(rec.Boxes, want) {
		t.Fatalf("unexpected boxes %#v", rec.Boxes)
	}
	if !reflect.DeepEqual(ds.ClassNames(), []string{"pen"}) {
		t.Fatalf("unexpected classes %v", ds.ClassNames())
	}
	if ds.Split != dataset.SplitTrain {
		t.Fatalf("unexpected split %q", ds.Split)
	}
}

func TestBuildNotRelevantEntryKeptWithoutBoxes(t *testing.T) {
	entry := `{"source-ref": "s3://bucket/neg.jpg", "auto-label-metadata": {"class-name": "NOT_RELEVANT"}}`
	ds, err := build(t, dataset.ShapeDimensions, entry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}
	rec := ds.Records[0]
	if len(rec.Boxes) != 0 {
		t.Fatalf("expected no boxes, got %d", len(rec.Boxes))
	}
	if rec.Width != 0 || rec.Height != 0 || rec.Depth != 0 {
		t.Fatalf("expected zero dimensions, got %dx%dx%d", rec.Width, rec.Height, rec.Depth)
	}
	if len(ds.Classes) != 0 {
		t.Fatalf("expected no classes, got %v", ds.ClassNames())
	}
}

func TestBuildDropsUnrecognizedEntries(t *testing.T) {
	entries := []string{
		`{"source-ref": "s3://bucket/skip.jpg"}`,
		`{"source-ref": "s3://bucket/other.jpg", "auto-label-metadata": {"class-name": "relevant"}}`,
		`{"auto-label-metadata": {"class-name": "NOT_RELEVANT"}, "other_BBX": {}, "source-ref": "s3://b/c.jpg"}`,
	}
	ds, err := build(t, dataset.ShapeDimensions, entries...)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	// The third entry has no "_BB" suffix key so it is a negative.
	if len(ds.Records) != 1 || ds.Records[0].SourceURI != "s3://b/c.jpg" {
		t.Fatalf("unexpected records %#v", ds.Records)
	}
	if len(ds.Classes) != 0 {
		t.Fatalf("dropped entries must not contribute classes, got %v", ds.ClassNames())
	}
}

func TestBuildSkippedEntryDoesNotNeedSourceRef(t *testing.T) {
	ds, err := build(t, dataset.ShapeDimensions, `{"something": 1}`)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(ds.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(ds.Records))
	}
}

func TestBuildKeepsRetrievalOrderAndUnionsClasses(t *testing.T) {
	second := `{"job_BB": {"image_size":[{"width":10,"height":10,"depth":3}], "annotations":[{"class_id":1,"left":0,"top":0,"width":1,"height":1},{"class_id":2,"left":1,"top":1,"width":2,"height":2}]}, "job_BB-metadata": {"class-map": {"1":"cap","2":"nib","3":"unused"}}, "source-ref": "s3://bucket/b.jpg"}`
	negative := `{"source-ref": "s3://bucket/n.jpg", "auto-label-metadata": {"class-name": "NOT_RELEVANT"}}`
	ds, err := build(t, dataset.ShapeDimensions, second, negative, penEntry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	var uris []string
	for _, r := range ds.Records {
		uris = append(uris, r.SourceURI)
	}
	wantURIs := []string{"s3://bucket/b.jpg", "s3://bucket/n.jpg", "s3://bucket/a.jpg"}
	if !reflect.DeepEqual(uris, wantURIs) {
		t.Fatalf("unexpected order %v", uris)
	}
	if !reflect.DeepEqual(ds.ClassNames(), []string{"cap", "nib", "pen"}) {
		t.Fatalf("unexpected classes %v", ds.ClassNames())
	}
	if ds.BoxCount() != 3 {
		t.Fatalf("expected 3 boxes, got %d", ds.BoxCount())
	}
}

func TestBuildProcessesOnlyFirstBoxJobKey(t *testing.T) {
	entry := `{"second_BB": {"image_size":[{"width":8,"height":8,"depth":1}], "annotations":[{"class_id":0,"left":0,"top":0,"width":4,"height":4}]}, "second_BB-metadata": {"class-map": {"0":"first-seen"}}, "first_BB": {"image_size":[{"width":9,"height":9,"depth":1}], "annotations":[{"class_id":0,"left":1,"top":1,"width":2,"height":2}]}, "first_BB-metadata": {"class-map": {"0":"ignored"}}, "source-ref": "s3://bucket/multi.jpg"}`
	ds, err := build(t, dataset.ShapeDimensions, entry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	rec := ds.Records[0]
	if rec.Width != 8 || len(rec.Boxes) != 1 || rec.Boxes[0].Class != "first-seen" {
		t.Fatalf("expected first job key in document order, got %#v", rec)
	}
	if _, ok := ds.Classes["ignored"]; ok {
		t.Fatal("classes from later job keys must be ignored")
	}
}

func TestBuildBoxesOnlyShapeOmitsDimensions(t *testing.T) {
	ds, err := build(t, dataset.ShapeBoxesOnly, penEntry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	rec := ds.Records[0]
	if rec.Width != 0 || rec.Height != 0 || rec.Depth != 0 {
		t.Fatalf("expected dimensions omitted, got %dx%dx%d", rec.Width, rec.Height, rec.Depth)
	}
	if len(rec.Boxes) != 1 {
		t.Fatalf("expected boxes kept, got %d", len(rec.Boxes))
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		marker   error
		fragment string
	}{
		{"malformed json", `{"bb_BB": `, services.ErrParse, "manifest entry 0"},
		{"not an object", `["a"]`, services.ErrParse, "not a JSON object"},
		{"wrong field type", `{"bb_BB": {"image_size": "big"}, "source-ref": "s3://b/k.jpg"}`, services.ErrParse, "bb_BB"},
		{"missing metadata", `{"bb_BB": {"image_size":[{"width":1,"height":1,"depth":1}], "annotations":[]}, "source-ref": "s3://b/k.jpg"}`, services.ErrConfiguration, "bb_BB-metadata"},
		{"missing class map", `{"bb_BB": {"image_size":[{"width":1,"height":1,"depth":1}], "annotations":[]}, "bb_BB-metadata": {}, "source-ref": "s3://b/k.jpg"}`, services.ErrConfiguration, "class-map"},
		{"missing image size", `{"bb_BB": {"annotations":[]}, "bb_BB-metadata": {"class-map": {}}, "source-ref": "s3://b/k.jpg"}`, services.ErrConfiguration, "image_size"},
		{"unknown class id", `{"bb_BB": {"image_size":[{"width":1,"height":1,"depth":1}], "annotations":[{"class_id":4,"left":0,"top":0,"width":1,"height":1}]}, "bb_BB-metadata": {"class-map": {"0":"pen"}}, "source-ref": "s3://b/k.jpg"}`, services.ErrConfiguration, `class id "4"`},
		{"missing class id", `{"bb_BB": {"image_size":[{"width":1,"height":1,"depth":1}], "annotations":[{"left":0,"top":0,"width":1,"height":1}]}, "bb_BB-metadata": {"class-map": {"0":"pen"}}, "source-ref": "s3://b/k.jpg"}`, services.ErrConfiguration, "class_id"},
		{"missing source ref", `{"auto-label-metadata": {"class-name": "NOT_RELEVANT"}}`, services.ErrConfiguration, "source-ref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, dataset.ShapeDimensions, tt.entry)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected marker %v, got %v", tt.marker, err)
			}
			if !strings.Contains(err.Error(), tt.fragment) {
				t.Fatalf("expected %q in %q", tt.fragment, err.Error())
			}
		})
	}
}

func TestBuildErrorNamesEntryIndexAndSplit(t *testing.T) {
	_, err := build(t, dataset.ShapeDimensions, penEntry, `{"bb_BB": {"annotations":[]}, "source-ref": "s3://b/k.jpg"}`)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, fragment := range []string{"TRAIN", "manifest entry 1"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestBuildRejectsUnknownSplit(t *testing.T) {
	_, err := dataset.NewBuilder(dataset.ShapeDimensions, nil).Build(dataset.SplitKind("HOLDOUT"), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildAcceptsFloatClassIDs(t *testing.T) {
	entry := `{"bb_BB": {"image_size":[{"width":10,"height":10,"depth":3}], "annotations":[{"class_id":1.0,"left":0,"top":0,"width":1,"height":1}]}, "bb_BB-metadata": {"class-map": {"1":"ink"}}, "source-ref": "s3://bucket/f.jpg"}`
	ds, err := build(t, dataset.ShapeDimensions, entry)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if ds.Records[0].Boxes[0].Class != "ink" {
		t.Fatalf("unexpected class %q", ds.Records[0].Boxes[0].Class)
	}
}
