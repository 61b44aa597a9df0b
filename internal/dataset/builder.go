package dataset

import (
	"errors"
	"fmt"
	"log/slog"

	"rekogexport/internal/logging"
	"rekogexport/internal/services"
)

// Builder converts raw manifest entries into a Dataset. The record shape is
// fixed per builder so a single run never mixes shapes.
type Builder struct {
	shape  RecordShape
	logger *slog.Logger
}

// NewBuilder constructs a builder for the given shape. A nil logger discards
// output.
func NewBuilder(shape RecordShape, logger *slog.Logger) *Builder {
	if shape == "" {
		shape = ShapeDimensions
	}
	return &Builder{
		shape:  shape,
		logger: logging.NewComponentLogger(logger, "dataset"),
	}
}

// Shape returns the record shape this builder produces.
func (b *Builder) Shape() RecordShape {
	return b.shape
}

// Build parses every entry in order. Entries that are neither annotated nor
// explicit negatives are dropped; any malformed entry aborts the build.
func (b *Builder) Build(split SplitKind, entries [][]byte) (*Dataset, error) {
	if _, err := split.Dir(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	classes := make(map[string]struct{})
	dropped := 0
	negatives := 0

	for i, raw := range entries {
		parsed, err := parseEntry(raw)
		if err != nil {
			return nil, entryError(split, i, err)
		}
		var rec Record
		switch parsed.kind {
		case entrySkipped:
			dropped++
			continue
		case entryNegative:
			negatives++
			rec = Record{SourceURI: parsed.sourceRef, Boxes: []BoundingBox{}}
		case entryAnnotated:
			rec = b.annotatedRecord(parsed)
			classes = accumulateClasses(classes, rec.Boxes)
		}
		records = append(records, rec)
	}

	b.logger.Debug("dataset built",
		logging.String(logging.FieldSplit, string(split)),
		logging.Int("entries", len(entries)),
		logging.Int("records", len(records)),
		logging.Int("negatives", negatives),
		logging.Int("dropped", dropped),
		logging.Int("classes", len(classes)),
	)

	return &Dataset{Split: split, Records: records, Classes: classes}, nil
}

func (b *Builder) annotatedRecord(parsed parsedEntry) Record {
	rec := Record{SourceURI: parsed.sourceRef, Boxes: parsed.boxes}
	if b.shape == ShapeDimensions {
		rec.Width = parsed.size.Width
		rec.Height = parsed.size.Height
		rec.Depth = parsed.size.Depth
	}
	return rec
}

func accumulateClasses(acc map[string]struct{}, boxes []BoundingBox) map[string]struct{} {
	for _, box := range boxes {
		acc[box.Class] = struct{}{}
	}
	return acc
}

func entryError(split SplitKind, index int, err error) error {
	marker := services.ErrConfiguration
	if errors.Is(err, errMalformed) || errors.Is(err, errNotJSONObject) {
		marker = services.ErrParse
	}
	return services.Wrap(marker, string(split), "build", fmt.Sprintf("manifest entry %d", index), err)
}
