package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	boxJobSuffix      = "_BB"
	metadataSuffix    = "-metadata"
	sourceRefKey      = "source-ref"
	autoLabelKey      = "auto-label-metadata"
	notRelevantMarker = "NOT_RELEVANT"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errMalformed     = errors.New("malformed entry")
	errMissingField  = errors.New("missing field")
	errUnknownClass  = errors.New("unknown class id")
	errNotJSONObject = errors.New("entry is not a JSON object")
)

type entryKind int

const (
	entrySkipped entryKind = iota
	entryAnnotated
	entryNegative
)

// parsedEntry is the tagged result of classifying one manifest entry.
type parsedEntry struct {
	kind      entryKind
	sourceRef string
	jobKey    string
	size      imageSize
	boxes     []BoundingBox
}

type field struct {
	key   string
	value []byte
}

type imageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

type annotation struct {
	ClassID *jsoniter.Number `json:"class_id"`
	Left    int              `json:"left"`
	Top     int              `json:"top"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
}

type boxJobOutput struct {
	ImageSize   []imageSize  `json:"image_size"`
	Annotations []annotation `json:"annotations"`
}

type boxJobMetadata struct {
	ClassMap map[string]string `json:"class-map"`
}

type autoLabelMetadata struct {
	ClassName string `json:"class-name"`
}

// parseEntry classifies a raw entry. Key order matters: only the first
// bounding-box job key in document order is used.
func parseEntry(raw []byte) (parsedEntry, error) {
	fields, err := readFields(raw)
	if err != nil {
		return parsedEntry{}, err
	}

	jobIdx := -1
	for i, f := range fields {
		if strings.HasSuffix(f.key, boxJobSuffix) {
			jobIdx = i
			break
		}
	}

	if jobIdx < 0 {
		if !isNotRelevant(fields) {
			return parsedEntry{kind: entrySkipped}, nil
		}
		ref, err := sourceRef(fields)
		if err != nil {
			return parsedEntry{}, err
		}
		return parsedEntry{kind: entryNegative, sourceRef: ref}, nil
	}

	jobKey := fields[jobIdx].key
	var output boxJobOutput
	if err := json.Unmarshal(fields[jobIdx].value, &output); err != nil {
		return parsedEntry{}, fmt.Errorf("%w: decode %s: %w", errMalformed, jobKey, err)
	}
	if len(output.ImageSize) == 0 {
		return parsedEntry{}, fmt.Errorf("%w: %s.image_size", errMissingField, jobKey)
	}

	metaKey := jobKey + metadataSuffix
	metaRaw, ok := lookup(fields, metaKey)
	if !ok {
		return parsedEntry{}, fmt.Errorf("%w: %s", errMissingField, metaKey)
	}
	var meta boxJobMetadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return parsedEntry{}, fmt.Errorf("%w: decode %s: %w", errMalformed, metaKey, err)
	}
	if meta.ClassMap == nil {
		return parsedEntry{}, fmt.Errorf("%w: %s.class-map", errMissingField, metaKey)
	}

	boxes := make([]BoundingBox, 0, len(output.Annotations))
	for i, a := range output.Annotations {
		if a.ClassID == nil {
			return parsedEntry{}, fmt.Errorf("%w: %s.annotations[%d].class_id", errMissingField, jobKey, i)
		}
		id := classKey(*a.ClassID)
		name, ok := meta.ClassMap[id]
		if !ok {
			return parsedEntry{}, fmt.Errorf("%w: %s.annotations[%d] references class id %q absent from %s.class-map", errUnknownClass, jobKey, i, id, metaKey)
		}
		boxes = append(boxes, BoundingBox{
			Left:   a.Left,
			Top:    a.Top,
			Width:  a.Width,
			Height: a.Height,
			Class:  name,
		})
	}

	ref, err := sourceRef(fields)
	if err != nil {
		return parsedEntry{}, err
	}
	return parsedEntry{
		kind:      entryAnnotated,
		sourceRef: ref,
		jobKey:    jobKey,
		size:      output.ImageSize[0],
		boxes:     boxes,
	}, nil
}

// readFields decodes the top-level object keeping key order, which a Go map
// would lose.
func readFields(raw []byte) ([]field, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", errMalformed)
	}
	iter := json.BorrowIterator(trimmed)
	defer json.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, errNotJSONObject
	}
	var fields []field
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		fields = append(fields, field{key: key, value: it.SkipAndReturnBytes()})
		return true
	})
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, iter.Error)
	}
	return fields, nil
}

func lookup(fields []field, key string) ([]byte, bool) {
	for _, f := range fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

func sourceRef(fields []field) (string, error) {
	raw, ok := lookup(fields, sourceRefKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissingField, sourceRefKey)
	}
	var ref string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", errMalformed, sourceRefKey, err)
	}
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: %s is empty", errMissingField, sourceRefKey)
	}
	return ref, nil
}

func isNotRelevant(fields []field) bool {
	raw, ok := lookup(fields, autoLabelKey)
	if !ok {
		return false
	}
	var meta autoLabelMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return false
	}
	return meta.ClassName == notRelevantMarker
}

// classKey renders a class id the way class-map keys are written. Integral
// floats ("1.0") collapse to their integer form.
func classKey(n jsoniter.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}
