package materialize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strconv"
	"strings"

	"rekogexport/internal/dataset"
	"rekogexport/internal/services"
)

// LabelFormat selects the label line convention.
type LabelFormat string

const (
	// FormatYOLO writes normalized center-form boxes.
	FormatYOLO LabelFormat = "yolo"
	// FormatPixel writes raw pixel left/top/width/height.
	FormatPixel LabelFormat = "pixel"
)

// ParseLabelFormat validates a configured label format. Empty means FormatYOLO.
func ParseLabelFormat(value string) (LabelFormat, error) {
	switch LabelFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatYOLO:
		return FormatYOLO, nil
	case FormatPixel:
		return FormatPixel, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "", "label format", fmt.Sprintf("unsupported value %q", value), nil)
	}
}

// SourceStem returns the hex SHA-256 of uri, used as the file stem for both
// the image and its label file.
func SourceStem(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])
}

// ParseObjectURI splits scheme://bucket/key. The key keeps any characters a
// URL parser would reinterpret ('%', '?', '#').
func ParseObjectURI(uri string) (bucket, key string, err error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return "", "", fmt.Errorf("object uri %q: missing scheme", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("object uri %q: missing bucket", uri)
	}
	if key == "" {
		return "", "", fmt.Errorf("object uri %q: missing key", uri)
	}
	return bucket, key, nil
}

// ImageExt returns the extension of the object key, including the dot.
func ImageExt(key string) string {
	return path.Ext(key)
}

// FormatLabels renders one line per box using the class index. Pixel format
// ignores image dimensions; YOLO format requires them.
func FormatLabels(rec dataset.Record, classes dataset.ClassIndex, format LabelFormat) (string, error) {
	if format == FormatYOLO && !rec.HasDimensions() {
		return "", fmt.Errorf("record %s has no image dimensions to normalize %d boxes", rec.SourceURI, len(rec.Boxes))
	}
	var b strings.Builder
	for i, box := range rec.Boxes {
		id, ok := classes.Lookup(box.Class)
		if !ok {
			return "", fmt.Errorf("record %s box %d: class %q missing from class index", rec.SourceURI, i, box.Class)
		}
		b.WriteString(strconv.Itoa(id))
		switch format {
		case FormatPixel:
			for _, v := range []int{box.Left, box.Top, box.Width, box.Height} {
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(v))
			}
		default:
			xc, yc, w, h := Normalize(box, rec.Width, rec.Height)
			for _, v := range []float64{xc, yc, w, h} {
				b.WriteByte(' ')
				b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Normalize converts a pixel box to center-form coordinates relative to the
// image size.
func Normalize(box dataset.BoundingBox, imgWidth, imgHeight int) (xCenter, yCenter, width, height float64) {
	w := float64(imgWidth)
	h := float64(imgHeight)
	xCenter = (float64(box.Left) + float64(box.Width)/2) / w
	yCenter = (float64(box.Top) + float64(box.Height)/2) / h
	return xCenter, yCenter, float64(box.Width) / w, float64(box.Height) / h
}

// Denormalize is the inverse of Normalize, returning pixel center and extent.
func Denormalize(xCenter, yCenter, width, height float64, imgWidth, imgHeight int) (cx, cy, w, h float64) {
	iw := float64(imgWidth)
	ih := float64(imgHeight)
	return xCenter * iw, yCenter * ih, width * iw, height * ih
}
