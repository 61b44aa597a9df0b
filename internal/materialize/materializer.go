package materialize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rekogexport/internal/dataset"
	"rekogexport/internal/fileutil"
	"rekogexport/internal/logging"
	"rekogexport/internal/services"
)

// ClassesFile is the class legend written alongside label files.
const ClassesFile = "classes.txt"

// Fetcher downloads one object to a local path. Implementations must be safe
// for concurrent use when Workers > 1.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key, dest string) error
}

// ProgressFunc receives the number of finished records and the split total.
type ProgressFunc func(done, total int)

// Options configures a Materializer.
type Options struct {
	Root     string
	Workers  int
	Format   LabelFormat
	Logger   *slog.Logger
	Progress ProgressFunc
}

// FileResult describes the outputs produced for one record.
type FileResult struct {
	SourceURI string
	Stem      string
	ImagePath string
	LabelPath string
	Boxes     int
}

// Summary reports what a split materialization wrote. Records counts manifest
// records; Images and Labels count distinct files, so records sharing a source
// URI are counted once.
type Summary struct {
	Split   dataset.SplitKind
	Dir     string
	Records int
	Images  int
	Labels  int
	Boxes   int
	Classes []string
	Files   []FileResult
}

// Materializer writes datasets under a fixed destination root.
type Materializer struct {
	fetcher  Fetcher
	root     string
	workers  int
	format   LabelFormat
	logger   *slog.Logger
	progress ProgressFunc
}

// New validates options and constructs a Materializer.
func New(fetcher Fetcher, opts Options) (*Materializer, error) {
	if fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "materialize", "object fetcher is required", nil)
	}
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "materialize", "destination root is required", nil)
	}
	format, err := ParseLabelFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Materializer{
		fetcher:  fetcher,
		root:     root,
		workers:  workers,
		format:   format,
		logger:   logging.NewComponentLogger(opts.Logger, "materialize"),
		progress: opts.Progress,
	}, nil
}

// WithProgress returns a copy of m that reports progress to fn.
func (m *Materializer) WithProgress(fn ProgressFunc) *Materializer {
	clone := *m
	clone.progress = fn
	return &clone
}

// SplitPaths returns the images and labels directories for split.
func (m *Materializer) SplitPaths(split dataset.SplitKind) (imagesDir, labelsDir string, err error) {
	dir, err := split.Dir()
	if err != nil {
		return "", "", err
	}
	base := filepath.Join(m.root, dir)
	return filepath.Join(base, "images"), filepath.Join(base, "labels"), nil
}

// Materialize writes classes.txt, then fetches every image and writes every
// label file. The first failure cancels outstanding records and is returned.
func (m *Materializer) Materialize(ctx context.Context, ds *dataset.Dataset) (Summary, error) {
	if ds == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "", "materialize", "dataset is required", nil)
	}
	split := string(ds.Split)
	imagesDir, labelsDir, err := m.SplitPaths(ds.Split)
	if err != nil {
		return Summary{}, err
	}
	if err := fileutil.EnsureDirs(imagesDir, labelsDir); err != nil {
		return Summary{}, fmt.Errorf("%s: prepare directories: %w", split, err)
	}

	classes := dataset.NewClassIndex(ds.Classes)
	if err := fileutil.WriteLines(filepath.Join(labelsDir, ClassesFile), classes.Names()); err != nil {
		return Summary{}, fmt.Errorf("%s: write %s: %w", split, ClassesFile, err)
	}

	logger := logging.WithContext(services.WithSplit(ctx, split), m.logger)
	logger.Info("materializing split",
		logging.String("images_dir", imagesDir),
		logging.String("labels_dir", labelsDir),
		logging.Int("records", len(ds.Records)),
		logging.Int("classes", classes.Len()),
		logging.Int("workers", m.workers),
	)

	results := make([]FileResult, len(ds.Records))
	var (
		mu   sync.Mutex
		done int
	)
	total := len(ds.Records)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.workers)
	for i := range ds.Records {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			res, err := m.writeRecord(groupCtx, split, i, ds.Records[i], classes, imagesDir, labelsDir)
			if err != nil {
				return err
			}
			results[i] = res
			mu.Lock()
			done++
			current := done
			mu.Unlock()
			if m.progress != nil {
				m.progress(current, total)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Split:   ds.Split,
		Dir:     filepath.Dir(imagesDir),
		Records: total,
		Classes: classes.Names(),
		Files:   results,
	}
	images := make(map[string]struct{}, total)
	labels := make(map[string]struct{}, total)
	for _, res := range results {
		summary.Boxes += res.Boxes
		images[res.ImagePath] = struct{}{}
		if res.LabelPath != "" {
			labels[res.LabelPath] = struct{}{}
		}
	}
	summary.Images = len(images)
	summary.Labels = len(labels)
	logger.Info("split materialized",
		logging.String(logging.FieldEventType, "split_materialized"),
		logging.Int("images", summary.Images),
		logging.Int("labels", summary.Labels),
		logging.Int("boxes", summary.Boxes),
	)
	return summary, nil
}

func (m *Materializer) writeRecord(ctx context.Context, split string, index int, rec dataset.Record, classes dataset.ClassIndex, imagesDir, labelsDir string) (FileResult, error) {
	if err := ctx.Err(); err != nil {
		return FileResult{}, err
	}
	stem := SourceStem(rec.SourceURI)
	bucket, key, err := ParseObjectURI(rec.SourceURI)
	if err != nil {
		return FileResult{}, services.Wrap(services.ErrConfiguration, split, "parse source", fmt.Sprintf("record %d", index), err)
	}

	imagePath := filepath.Join(imagesDir, stem+ImageExt(key))
	partial, err := fileutil.NewPartial(imagePath)
	if err != nil {
		return FileResult{}, fmt.Errorf("%s: stage image for record %d: %w", split, index, err)
	}
	if err := m.fetcher.Fetch(ctx, bucket, key, partial); err != nil {
		_ = os.Remove(partial)
		return FileResult{}, services.Wrap(services.ErrFetch, split, "download", fmt.Sprintf("record %d (%s)", index, rec.SourceURI), err)
	}
	if err := fileutil.Promote(partial, imagePath); err != nil {
		return FileResult{}, services.Wrap(services.ErrFetch, split, "download", fmt.Sprintf("record %d (%s)", index, rec.SourceURI), err)
	}

	res := FileResult{SourceURI: rec.SourceURI, Stem: stem, ImagePath: imagePath, Boxes: len(rec.Boxes)}
	labelPath := filepath.Join(labelsDir, stem+".txt")
	if len(rec.Boxes) == 0 {
		// A previous export may have left labels for this image.
		if err := os.Remove(labelPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return FileResult{}, fmt.Errorf("%s: remove stale labels for record %d: %w", split, index, err)
		}
		return res, nil
	}

	body, err := FormatLabels(rec, classes, m.format)
	if err != nil {
		return FileResult{}, services.Wrap(services.ErrConfiguration, split, "format labels", fmt.Sprintf("record %d", index), err)
	}
	if err := fileutil.WriteFileAtomic(labelPath, []byte(body), 0o644); err != nil {
		return FileResult{}, fmt.Errorf("%s: write labels for record %d: %w", split, index, err)
	}
	res.LabelPath = labelPath
	return res, nil
}
