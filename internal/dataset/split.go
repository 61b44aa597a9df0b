package dataset

import (
	"fmt"
	"strings"

	"rekogexport/internal/services"
)

// SplitKind is the upstream dataset type.
type SplitKind string

const (
	SplitTrain SplitKind = "TRAIN"
	SplitTest  SplitKind = "TEST"
)

// ParseSplitKind accepts upstream dataset type names as well as the
// materialized directory names ("train", "val").
func ParseSplitKind(value string) (SplitKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "train":
		return SplitTrain, nil
	case "test", "val":
		return SplitTest, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "", "split", fmt.Sprintf("unsupported split kind %q", value), nil)
	}
}

// Dir returns the directory name the split is materialized under.
func (s SplitKind) Dir() (string, error) {
	switch s {
	case SplitTrain:
		return "train", nil
	case SplitTest:
		return "val", nil
	default:
		return "", services.Wrap(services.ErrConfiguration, string(s), "split", fmt.Sprintf("unsupported split kind %q", string(s)), nil)
	}
}

func (s SplitKind) String() string {
	return string(s)
}

// RecordShape selects which Record fields a builder fills for a whole run.
type RecordShape string

const (
	// ShapeDimensions keeps the image size reported by the job output.
	ShapeDimensions RecordShape = "dimensions"
	// ShapeBoxesOnly keeps boxes and leaves image dimensions zero.
	ShapeBoxesOnly RecordShape = "boxes-only"
)

// ParseRecordShape validates a configured record shape. Empty means
// ShapeDimensions.
func ParseRecordShape(value string) (RecordShape, error) {
	switch RecordShape(strings.ToLower(strings.TrimSpace(value))) {
	case "", ShapeDimensions:
		return ShapeDimensions, nil
	case ShapeBoxesOnly:
		return ShapeBoxesOnly, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "", "record shape", fmt.Sprintf("unsupported value %q", value), nil)
	}
}
