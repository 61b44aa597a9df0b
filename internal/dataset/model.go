package dataset

import "sort"

// BoundingBox is one labeled object region in pixel coordinates relative to
// the source image.
type BoundingBox struct {
	Left   int
	Top    int
	Width  int
	Height int
	Class  string
}

// Record is one dataset item: a source image reference plus its objects.
// Width, Height and Depth are zero for explicit negatives and for builders
// running with ShapeBoxesOnly.
type Record struct {
	SourceURI string
	Width     int
	Height    int
	Depth     int
	Boxes     []BoundingBox
}

// HasDimensions reports whether the record carries usable image dimensions.
func (r Record) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// Dataset is the build result for one split.
type Dataset struct {
	Split   SplitKind
	Records []Record
	Classes map[string]struct{}
}

// ClassNames returns the class set sorted lexicographically.
func (d *Dataset) ClassNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Classes))
	for name := range d.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BoxCount returns the total number of boxes across all records.
func (d *Dataset) BoxCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, rec := range d.Records {
		total += len(rec.Boxes)
	}
	return total
}

// ClassBoxCounts returns how many boxes reference each class.
func (d *Dataset) ClassBoxCounts() map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, rec := range d.Records {
		for _, box := range rec.Boxes {
			counts[box.Class]++
		}
	}
	return counts
}

// NegativeCount returns the number of records without boxes.
func (d *Dataset) NegativeCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, rec := range d.Records {
		if len(rec.Boxes) == 0 {
			n++
		}
	}
	return n
}
