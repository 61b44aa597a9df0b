package exportrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rekogexport/internal/dataset"
	"rekogexport/internal/journal"
	"rekogexport/internal/logging"
	"rekogexport/internal/manifest"
	"rekogexport/internal/materialize"
	"rekogexport/internal/services"
	"rekogexport/internal/services/rekog"
)

// LockFileName guards a destination root against concurrent exports.
const LockFileName = ".rekogexport.lock"

// DatasetResolver maps a project name to its TRAIN and TEST datasets.
type DatasetResolver interface {
	ResolveDatasets(ctx context.Context, project string) ([]rekog.DatasetRef, error)
}

// Deps holds the collaborators a Runner drives. Journal is optional.
type Deps struct {
	Lister   manifest.Lister
	Resolver DatasetResolver
	Fetcher  materialize.Fetcher
	Journal  *journal.Store
	Logger   *slog.Logger
}

// Options describes one export invocation.
type Options struct {
	Project     string
	Datasets    []rekog.DatasetRef
	Splits      []dataset.SplitKind
	Destination string
	Workers     int
	Format      materialize.LabelFormat
	Shape       dataset.RecordShape

	// ProgressOutput receives an interactive progress bar when set. Without
	// it, progress is logged in sampled steps.
	ProgressOutput io.Writer
}

// SplitReport describes the outcome for one split.
type SplitReport struct {
	Split      dataset.SplitKind
	DatasetARN string
	Entries    int
	Dataset    *dataset.Dataset
	Summary    materialize.Summary
}

// Report describes a finished export run.
type Report struct {
	RunID       string
	Destination string
	Splits      []SplitReport
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration reports the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes the fetch, build, and materialize pipeline per split.
type Runner struct {
	deps   Deps
	logger *slog.Logger
}

// New constructs a runner.
func New(deps Deps) *Runner {
	return &Runner{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "exportrun")}
}

// Run exports every selected split in TRAIN, TEST order. Any failure aborts
// the run; files already written for earlier records are left in place.
func (r *Runner) Run(ctx context.Context, opts Options) (report *Report, err error) {
	dest := strings.TrimSpace(opts.Destination)
	if dest == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "export", "destination directory is required", nil)
	}
	if r.deps.Fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "export", "object fetcher is required", nil)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	lockPath := filepath.Join(dest, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "", "export", fmt.Sprintf("another export is writing to %s", dest), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release destination lock", logging.String("lock", lockPath), logging.Error(unlockErr))
		}
	}()

	report = &Report{RunID: uuid.NewString(), Destination: dest, StartedAt: time.Now()}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if r.deps.Journal != nil {
		if err := r.deps.Journal.BeginRun(ctx, journal.Run{
			ID:          report.RunID,
			Project:     opts.Project,
			Destination: dest,
			LabelFormat: string(opts.Format),
			StartedAt:   report.StartedAt,
		}); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		defer func() {
			// The caller's context may already be canceled; the outcome still belongs in history.
			if finishErr := r.deps.Journal.FinishRun(context.WithoutCancel(ctx), report.RunID, err); finishErr != nil {
				logger.Warn("failed to record run outcome", logging.Error(finishErr))
			}
		}()
	}

	logger.Info("export started",
		logging.String(logging.FieldEventType, "export_started"),
		logging.String("destination", dest),
		logging.String("project", opts.Project),
		logging.String("label_format", string(opts.Format)),
	)

	refs, err := r.selectDatasets(ctx, opts)
	if err != nil {
		return report, err
	}

	materializer, err := materialize.New(r.deps.Fetcher, materialize.Options{
		Root:    dest,
		Workers: opts.Workers,
		Format:  opts.Format,
		Logger:  r.deps.Logger,
	})
	if err != nil {
		return report, err
	}

	for _, ref := range refs {
		splitReport, err := r.exportSplit(ctx, ref, opts, materializer)
		if err != nil {
			logging.ErrorWithContext(logger, "export failed", "export_failed",
				logging.String(logging.FieldSplit, string(ref.Split)),
				logging.String(logging.FieldFailureKind, services.FailureKind(err)),
				logging.String(logging.FieldErrorHint, failureHint(err)),
				logging.Error(err),
			)
			return report, err
		}
		report.Splits = append(report.Splits, splitReport)
	}

	report.FinishedAt = time.Now()
	logger.Info("export finished",
		logging.String(logging.FieldEventType, "export_finished"),
		logging.Int("splits", len(report.Splits)),
		logging.Duration("duration", report.Duration()),
	)
	return report, nil
}

// Inspect fetches and builds every selected split without downloading
// images or writing files.
func (r *Runner) Inspect(ctx context.Context, opts Options) ([]SplitReport, error) {
	refs, err := r.selectDatasets(ctx, opts)
	if err != nil {
		return nil, err
	}
	reports := make([]SplitReport, 0, len(refs))
	for _, ref := range refs {
		splitCtx := services.WithSplit(ctx, string(ref.Split))
		entries, ds, err := r.build(splitCtx, ref, opts.Shape)
		if err != nil {
			return nil, err
		}
		reports = append(reports, SplitReport{Split: ref.Split, DatasetARN: ref.ARN, Entries: entries, Dataset: ds})
	}
	return reports, nil
}

func (r *Runner) exportSplit(ctx context.Context, ref rekog.DatasetRef, opts Options, materializer *materialize.Materializer) (SplitReport, error) {
	ctx = services.WithSplit(ctx, string(ref.Split))
	entries, ds, err := r.build(ctx, ref, opts.Shape)
	if err != nil {
		return SplitReport{}, err
	}

	progress := newProgressReporter(opts.ProgressOutput, string(ref.Split), len(ds.Records), logging.WithContext(ctx, r.logger))
	summary, err := materializer.WithProgress(progress.Update).Materialize(ctx, ds)
	progress.Finish()
	if err != nil {
		return SplitReport{}, err
	}

	if r.deps.Journal != nil {
		if err := r.journalSplit(ctx, ref, entries, summary); err != nil {
			return SplitReport{}, err
		}
	}
	return SplitReport{Split: ref.Split, DatasetARN: ref.ARN, Entries: entries, Dataset: ds, Summary: summary}, nil
}

func (r *Runner) build(ctx context.Context, ref rekog.DatasetRef, shape dataset.RecordShape) (int, *dataset.Dataset, error) {
	fetcher := manifest.NewFetcher(r.deps.Lister, r.deps.Logger)
	entries, err := fetcher.Collect(ctx, ref.ARN)
	if err != nil {
		return 0, nil, fmt.Errorf("%s dataset %s: %w", ref.Split, ref.ARN, err)
	}
	ds, err := dataset.NewBuilder(shape, r.deps.Logger).Build(ref.Split, entries)
	if err != nil {
		return 0, nil, err
	}
	return len(entries), ds, nil
}

func (r *Runner) journalSplit(ctx context.Context, ref rekog.DatasetRef, entries int, summary materialize.Summary) error {
	runID, _ := services.RunIDFromContext(ctx)
	if err := r.deps.Journal.RecordSplit(ctx, journal.SplitRecord{
		RunID:      runID,
		Split:      string(ref.Split),
		DatasetARN: ref.ARN,
		Entries:    entries,
		Records:    summary.Records,
		Images:     summary.Images,
		Labels:     summary.Labels,
		Boxes:      summary.Boxes,
		Classes:    summary.Classes,
	}); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	files := make([]journal.FileRecord, 0, len(summary.Files))
	for _, f := range summary.Files {
		files = append(files, journal.FileRecord{
			RunID:     runID,
			Split:     string(ref.Split),
			SourceURI: f.SourceURI,
			ImagePath: f.ImagePath,
			LabelPath: f.LabelPath,
			Boxes:     f.Boxes,
		})
	}
	if err := r.deps.Journal.RecordFiles(ctx, files); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// selectDatasets returns explicit datasets when given, otherwise resolves the
// project, then applies the split filter.
func (r *Runner) selectDatasets(ctx context.Context, opts Options) ([]rekog.DatasetRef, error) {
	refs := slices.Clone(opts.Datasets)
	if len(refs) == 0 {
		if r.deps.Resolver == nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "select datasets", "no dataset ARNs given and no project resolver available", nil)
		}
		resolved, err := r.deps.Resolver.ResolveDatasets(ctx, opts.Project)
		if err != nil {
			return nil, err
		}
		refs = resolved
	}
	if len(opts.Splits) > 0 {
		refs = slices.DeleteFunc(refs, func(ref rekog.DatasetRef) bool {
			return !slices.Contains(opts.Splits, ref.Split)
		})
	}
	if len(refs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "select datasets", "no datasets match the requested splits", nil)
	}
	seen := make(map[dataset.SplitKind]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.Split]; dup {
			return nil, services.Wrap(services.ErrConfiguration, string(ref.Split), "select datasets", "more than one dataset for split", nil)
		}
		seen[ref.Split] = struct{}{}
	}
	slices.SortStableFunc(refs, func(a, b rekog.DatasetRef) int {
		return splitOrder(a.Split) - splitOrder(b.Split)
	})
	return refs, nil
}

func splitOrder(kind dataset.SplitKind) int {
	if kind == dataset.SplitTrain {
		return 0
	}
	return 1
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "the export was interrupted; rerun to overwrite partial output"
	case errors.Is(err, services.ErrConfiguration):
		return "check the manifest entry or configuration named in the error"
	case errors.Is(err, services.ErrParse):
		return "the listing returned an entry that is not valid JSON"
	case errors.Is(err, services.ErrFetch):
		return "an image referenced by the manifest could not be downloaded"
	case errors.Is(err, services.ErrService):
		return "the labeling service request failed; check credentials, region, and dataset ARN"
	default:
		return "check logs for details"
	}
}
