package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"rekogexport/internal/config"
	"rekogexport/internal/dataset"
	"rekogexport/internal/exportrun"
	"rekogexport/internal/journal"
	"rekogexport/internal/logging"
	"rekogexport/internal/materialize"
	"rekogexport/internal/services/rekog"
)

// selectionFlags are the dataset selection overrides shared by export and classes.
type selectionFlags struct {
	project string
	splits  []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "Rekognition project name (overrides configured dataset ARNs)")
	cmd.Flags().StringSliceVar(&f.splits, "split", nil, "Restrict to splits (train, test or val); repeatable")
}

// resolve applies the flags to a copy of cfg and returns the run options.
func (f *selectionFlags) resolve(cfg *config.Config) (*config.Config, exportrun.Options, error) {
	local := *cfg
	if project := strings.TrimSpace(f.project); project != "" {
		local.Rekognition.Project = project
		local.Rekognition.TrainDatasetARN = ""
		local.Rekognition.TestDatasetARN = ""
	}
	if err := local.RequireDatasetSource(); err != nil {
		return nil, exportrun.Options{}, err
	}

	format, err := materialize.ParseLabelFormat(local.Export.LabelFormat)
	if err != nil {
		return nil, exportrun.Options{}, err
	}
	shape, err := dataset.ParseRecordShape(local.Export.RecordShape)
	if err != nil {
		return nil, exportrun.Options{}, err
	}

	opts := exportrun.Options{
		Project:     local.Rekognition.Project,
		Destination: local.Paths.DestinationDir,
		Workers:     local.Export.Workers,
		Format:      format,
		Shape:       shape,
	}
	if arn := local.Rekognition.TrainDatasetARN; arn != "" {
		opts.Datasets = append(opts.Datasets, rekog.DatasetRef{Split: dataset.SplitTrain, ARN: arn})
	}
	if arn := local.Rekognition.TestDatasetARN; arn != "" {
		opts.Datasets = append(opts.Datasets, rekog.DatasetRef{Split: dataset.SplitTest, ARN: arn})
	}
	for _, raw := range f.splits {
		kind, err := dataset.ParseSplitKind(raw)
		if err != nil {
			return nil, exportrun.Options{}, err
		}
		opts.Splits = append(opts.Splits, kind)
	}
	return &local, opts, nil
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var selection selectionFlags
	var dest string
	var workers int
	var format string
	var jsonOutput bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download labeled images and write YOLO labels",
		Long: "Export lists every labeled entry of the TRAIN and TEST datasets, downloads\n" +
			"the referenced images and writes one label file per annotated image under\n" +
			"<dest>/train and <dest>/val.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			local := *cfg
			if strings.TrimSpace(dest) != "" {
				expanded, err := config.ExpandPath(strings.TrimSpace(dest))
				if err != nil {
					return fmt.Errorf("resolve destination: %w", err)
				}
				local.Paths.DestinationDir = expanded
			}
			if cmd.Flags().Changed("workers") {
				local.Export.Workers = workers
			}
			if strings.TrimSpace(format) != "" {
				local.Export.LabelFormat = strings.ToLower(strings.TrimSpace(format))
			}
			if err := local.Validate(); err != nil {
				return err
			}

			resolved, opts, err := selection.resolve(&local)
			if err != nil {
				return err
			}

			logger, err := newCommandLogger(resolved)
			if err != nil {
				return err
			}
			remote, err := ctx.newDeps(resolved, logger)
			if err != nil {
				return err
			}
			store, err := journal.Open(resolved.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if !noProgress && !jsonOutput {
				opts.ProgressOutput = progressOutput(cmd)
			}

			runner := exportrun.New(exportrun.Deps{
				Lister:   remote.lister,
				Resolver: remote.resolver,
				Fetcher:  remote.fetcher,
				Journal:  store,
				Logger:   logger,
			})
			report, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, newExportView(report))
			}
			printExportReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	selection.register(cmd)
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination root (defaults to paths.destination_dir)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent image downloads")
	cmd.Flags().StringVar(&format, "format", "", "Label line format: yolo or pixel")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the interactive progress bar")
	return cmd
}

// progressOutput returns the command's stderr when it is attached to a terminal.
func progressOutput(cmd *cobra.Command) io.Writer {
	w := cmd.ErrOrStderr()
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return nil
	}
	return w
}

func printExportReport(out io.Writer, report *exportrun.Report) {
	rows := make([][]string, 0, len(report.Splits))
	for _, split := range report.Splits {
		rows = append(rows, []string{
			splitLabel(split.Split),
			split.Summary.Dir,
			strconv.Itoa(split.Entries),
			strconv.Itoa(split.Summary.Images),
			strconv.Itoa(split.Summary.Labels),
			strconv.Itoa(split.Summary.Boxes),
			strconv.Itoa(len(split.Summary.Classes)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Split", "Directory", "Entries", "Images", "Labels", "Boxes", "Classes"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Run %s exported %s to %s in %s\n",
		shortID(report.RunID),
		plural(len(report.Splits), "split", "splits"),
		report.Destination,
		report.Duration().Round(time.Millisecond),
	)
}

type exportSplitView struct {
	Split      string   `json:"split"`
	Directory  string   `json:"directory"`
	DatasetARN string   `json:"dataset_arn"`
	Entries    int      `json:"entries"`
	Images     int      `json:"images"`
	Labels     int      `json:"labels"`
	Boxes      int      `json:"boxes"`
	Classes    []string `json:"classes"`
}

type exportView struct {
	RunID       string            `json:"run_id"`
	Destination string            `json:"destination"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Splits      []exportSplitView `json:"splits"`
}

func newExportView(report *exportrun.Report) exportView {
	view := exportView{
		RunID:       report.RunID,
		Destination: report.Destination,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
		Splits:      make([]exportSplitView, 0, len(report.Splits)),
	}
	for _, split := range report.Splits {
		classes := split.Summary.Classes
		if classes == nil {
			classes = []string{}
		}
		view.Splits = append(view.Splits, exportSplitView{
			Split:      string(split.Split),
			Directory:  split.Summary.Dir,
			DatasetARN: split.DatasetARN,
			Entries:    split.Entries,
			Images:     split.Summary.Images,
			Labels:     split.Summary.Labels,
			Boxes:      split.Summary.Boxes,
			Classes:    classes,
		})
	}
	return view
}

func newCommandLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}
