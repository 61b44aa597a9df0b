package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"rekogexport/internal/manifest"
	"rekogexport/internal/services/rekog"
)

// Box is a pixel-space box used to build annotated manifest entries.
type Box struct {
	Class                    string
	Left, Top, Width, Height int
}

// AnnotatedEntry renders a manifest line carrying a "<job>_BB" annotation
// block for an image of the given size.
func AnnotatedEntry(sourceURI string, width, height int, boxes ...Box) string {
	ids := map[string]int{}
	var classMap, annotations []string
	for _, box := range boxes {
		id, ok := ids[box.Class]
		if !ok {
			id = len(ids)
			ids[box.Class] = id
			classMap = append(classMap, fmt.Sprintf("%q:%s", strconv.Itoa(id), strconv.Quote(box.Class)))
		}
		annotations = append(annotations, fmt.Sprintf(
			`{"class_id":%d,"left":%d,"top":%d,"width":%d,"height":%d}`,
			id, box.Left, box.Top, box.Width, box.Height,
		))
	}
	return fmt.Sprintf(
		`{"source-ref":%s,"job_BB":{"image_size":[{"width":%d,"height":%d,"depth":3}],"annotations":[%s]},"job_BB-metadata":{"class-map":{%s}}}`,
		strconv.Quote(sourceURI), width, height, strings.Join(annotations, ","), strings.Join(classMap, ","),
	)
}

// NegativeEntry renders an explicit NOT_RELEVANT manifest line.
func NegativeEntry(sourceURI string) string {
	return fmt.Sprintf(`{"source-ref":%s,"auto-label-metadata":{"class-name":"NOT_RELEVANT"}}`, strconv.Quote(sourceURI))
}

// Lister serves fixed pages per dataset handle. Entries are split into pages
// of PageSize (default 2) so callers exercise continuation tokens.
type Lister struct {
	Datasets map[string][]string
	PageSize int
	Err      error

	mu    sync.Mutex
	Calls int
}

var _ manifest.Lister = (*Lister)(nil)

// ListLabeledEntries implements manifest.Lister.
func (l *Lister) ListLabeledEntries(_ context.Context, handle, token string) (manifest.Page, error) {
	l.mu.Lock()
	l.Calls++
	l.mu.Unlock()
	if l.Err != nil {
		return manifest.Page{}, l.Err
	}
	entries, ok := l.Datasets[handle]
	if !ok {
		return manifest.Page{}, fmt.Errorf("ResourceNotFoundException: dataset %s", handle)
	}
	size := l.PageSize
	if size <= 0 {
		size = 2
	}
	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return manifest.Page{}, fmt.Errorf("bad token %q", token)
		}
		start = n
	}
	end := min(start+size, len(entries))
	page := manifest.Page{Entries: entries[start:end]}
	if end < len(entries) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// Resolver returns fixed dataset refs for a single project name.
type Resolver struct {
	Project string
	Refs    []rekog.DatasetRef
}

// ResolveDatasets implements exportrun.DatasetResolver.
func (r *Resolver) ResolveDatasets(_ context.Context, project string) ([]rekog.DatasetRef, error) {
	if project != r.Project {
		return nil, fmt.Errorf("project %q not found", project)
	}
	return r.Refs, nil
}

// ErrMissingObject is returned by Fetcher for keys listed in Missing.
var ErrMissingObject = errors.New("NoSuchKey: the specified key does not exist")

// Fetcher writes a small placeholder body for every object, failing for
// keys listed in Missing. It is safe for concurrent use.
type Fetcher struct {
	Missing map[string]bool

	mu      sync.Mutex
	fetched []string
}

// Fetch implements materialize.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, bucket+"/"+key)
	f.mu.Unlock()
	if f.Missing[key] {
		return ErrMissingObject
	}
	return os.WriteFile(dest, []byte("image:"+bucket+"/"+key), 0o644)
}

// Fetched returns the bucket/key pairs requested so far.
func (f *Fetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}
