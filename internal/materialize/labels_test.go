package materialize_test

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"rekogexport/internal/dataset"
	"rekogexport/internal/materialize"
)

func TestFormatLabelsYOLOScenario(t *testing.T) {
	rec := dataset.Record{
		SourceURI: "s3://bucket/a.jpg",
		Width:     100,
		Height:    50,
		Depth:     3,
		Boxes:     []dataset.BoundingBox{{Left: 10, Top: 10, Width: 20, Height: 10, Class: "pen"}},
	}
	classes := dataset.NewClassIndex(map[string]struct{}{"pen": {}})

	got, err := materialize.FormatLabels(rec, classes, materialize.FormatYOLO)
	if err != nil {
		t.Fatalf("FormatLabels returned error: %v", err)
	}
	fields := strings.Fields(got)
	want := []float64{0, 0.2, 0.3, 0.2, 0.2}
	if len(fields) != len(want) {
		t.Fatalf("unexpected line %q", got)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			t.Fatalf("field %d %q not numeric: %v", i, f, err)
		}
		if math.Abs(v-want[i]) > 1e-9 {
			t.Fatalf("field %d = %v, want %v", i, v, want[i])
		}
	}
	if got != "0 0.2 0.3 0.2 0.2\n" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestFormatLabelsPixel(t *testing.T) {
	rec := dataset.Record{
		SourceURI: "s3://bucket/a.jpg",
		Boxes: []dataset.BoundingBox{
			{Left: 10, Top: 11, Width: 20, Height: 21, Class: "pen"},
			{Left: 1, Top: 2, Width: 3, Height: 4, Class: "cap"},
		},
	}
	classes := dataset.NewClassIndex(map[string]struct{}{"pen": {}, "cap": {}})
	got, err := materialize.FormatLabels(rec, classes, materialize.FormatPixel)
	if err != nil {
		t.Fatalf("FormatLabels returned error: %v", err)
	}
	if got != "1 10 11 20 21\n0 1 2 3 4\n" {
		t.Fatalf("unexpected pixel labels %q", got)
	}
}

func TestFormatLabelsYOLORequiresDimensions(t *testing.T) {
	rec := dataset.Record{
		SourceURI: "s3://bucket/a.jpg",
		Boxes:     []dataset.BoundingBox{{Left: 1, Top: 1, Width: 1, Height: 1, Class: "pen"}},
	}
	classes := dataset.NewClassIndex(map[string]struct{}{"pen": {}})
	if _, err := materialize.FormatLabels(rec, classes, materialize.FormatYOLO); err == nil {
		t.Fatal("expected error for record without dimensions")
	}
}

func TestFormatLabelsUnknownClass(t *testing.T) {
	rec := dataset.Record{
		SourceURI: "s3://bucket/a.jpg",
		Width:     10,
		Height:    10,
		Boxes:     []dataset.BoundingBox{{Class: "ghost"}},
	}
	if _, err := materialize.FormatLabels(rec, dataset.NewClassIndex(nil), materialize.FormatYOLO); err == nil {
		t.Fatal("expected error for class outside index")
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	boxes := []struct {
		box  dataset.BoundingBox
		w, h int
	}{
		{dataset.BoundingBox{Left: 10, Top: 10, Width: 20, Height: 10}, 100, 50},
		{dataset.BoundingBox{Left: 0, Top: 0, Width: 640, Height: 480}, 640, 480},
		{dataset.BoundingBox{Left: 333, Top: 17, Width: 7, Height: 91}, 1000, 777},
		{dataset.BoundingBox{Left: 1, Top: 1, Width: 0, Height: 0}, 3, 3},
	}
	for _, tt := range boxes {
		xc, yc, nw, nh := materialize.Normalize(tt.box, tt.w, tt.h)
		for _, v := range []float64{xc, yc, nw, nh} {
			if v < 0 || v > 1 {
				t.Fatalf("normalized value %v out of [0,1] for %#v", v, tt.box)
			}
		}
		cx, cy, w, h := materialize.Denormalize(xc, yc, nw, nh, tt.w, tt.h)
		wantCX := float64(tt.box.Left) + float64(tt.box.Width)/2
		wantCY := float64(tt.box.Top) + float64(tt.box.Height)/2
		const eps = 1e-9
		if math.Abs(cx-wantCX) > eps || math.Abs(cy-wantCY) > eps ||
			math.Abs(w-float64(tt.box.Width)) > eps || math.Abs(h-float64(tt.box.Height)) > eps {
			t.Fatalf("round trip mismatch for %#v: got (%v,%v,%v,%v)", tt.box, cx, cy, w, h)
		}
	}
}

func TestSourceStemStableAndDistinct(t *testing.T) {
	a := materialize.SourceStem("s3://b/x.jpg")
	if a != materialize.SourceStem("s3://b/x.jpg") {
		t.Fatal("stem must be stable")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == materialize.SourceStem("s3://b/other/x.jpg") {
		t.Fatal("same file name under different prefixes must not collide")
	}
	// sha256("abc")
	if got := materialize.SourceStem("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %s", got)
	}
}

func TestParseObjectURI(t *testing.T) {
	tests := []struct {
		uri         string
		bucket, key string
		wantErr     bool
	}{
		{uri: "s3://bucket/a.jpg", bucket: "bucket", key: "a.jpg"},
		{uri: "s3://bucket/deep/path/img 1.png", bucket: "bucket", key: "deep/path/img 1.png"},
		{uri: "s3://bucket/100%/x?.jpg", bucket: "bucket", key: "100%/x?.jpg"},
		{uri: "bucket/a.jpg", wantErr: true},
		{uri: "s3:///a.jpg", wantErr: true},
		{uri: "s3://bucket", wantErr: true},
		{uri: "s3://bucket/", wantErr: true},
	}
	for _, tt := range tests {
		bucket, key, err := materialize.ParseObjectURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseObjectURI(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil || bucket != tt.bucket || key != tt.key {
			t.Fatalf("ParseObjectURI(%q) = %q, %q, %v", tt.uri, bucket, key, err)
		}
	}
	if ext := materialize.ImageExt("deep/path/img.JPEG"); ext != ".JPEG" {
		t.Fatalf("unexpected ext %q", ext)
	}
	if ext := materialize.ImageExt("noext"); ext != "" {
		t.Fatalf("unexpected ext %q", ext)
	}
}

func TestParseLabelFormat(t *testing.T) {
	for input, want := range map[string]materialize.LabelFormat{"": materialize.FormatYOLO, "YOLO": materialize.FormatYOLO, "pixel": materialize.FormatPixel} {
		got, err := materialize.ParseLabelFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseLabelFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := materialize.ParseLabelFormat("coco"); err == nil {
		t.Fatal("expected error")
	}
}
