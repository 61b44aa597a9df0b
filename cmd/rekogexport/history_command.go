package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rekogexport/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var showFiles bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded export runs",
		Long: "Without arguments, history lists the most recent export runs. With a run id\n" +
			"(or a unique prefix of one) it shows the per-split totals of that run.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0], showFiles, jsonOutput)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run, nil))
				}
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No export runs recorded")
				return nil
			}
			printRuns(out, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	cmd.Flags().BoolVar(&showFiles, "files", false, "With a run id, also list the files written per source image")
	return cmd
}

func showRun(cmd *cobra.Command, store *journal.Store, idOrPrefix string, showFiles, jsonOutput bool) error {
	run, err := findRun(cmd, store, strings.TrimSpace(idOrPrefix))
	if err != nil {
		return err
	}
	splits, err := store.Splits(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	var files []journal.FileRecord
	if showFiles {
		files, err = store.RunFiles(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
	}
	if jsonOutput {
		view := newRunView(run, splits)
		view.Files = newFileViews(files)
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:         %s\n", run.ID)
	fmt.Fprintf(out, "Status:      %s\n", statusLabel(run.Status))
	if run.Project != "" {
		fmt.Fprintf(out, "Project:     %s\n", run.Project)
	}
	fmt.Fprintf(out, "Destination: %s\n", run.Destination)
	fmt.Fprintf(out, "Format:      %s\n", run.LabelFormat)
	fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(time.DateTime))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(out, "Duration:    %s\n", d.Round(time.Millisecond))
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Failure:     %s (%s)\n", run.ErrorMessage, run.FailureKind)
	}
	if len(splits) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(splits))
	for _, split := range splits {
		rows = append(rows, []string{
			splitLabel(split.Split),
			strconv.Itoa(split.Entries),
			strconv.Itoa(split.Images),
			strconv.Itoa(split.Labels),
			strconv.Itoa(split.Boxes),
			strings.Join(split.Classes, ", "),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Split", "Entries", "Images", "Labels", "Boxes", "Classes"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	if showFiles && len(files) > 0 {
		fmt.Fprintln(out)
		printFiles(out, files)
	}
	return nil
}

func printFiles(out io.Writer, files []journal.FileRecord) {
	rows := make([][]string, 0, len(files))
	for _, file := range files {
		rows = append(rows, []string{
			splitLabel(file.Split),
			file.SourceURI,
			filepath.Base(file.ImagePath),
			yesNo(file.LabelPath != ""),
			strconv.Itoa(file.Boxes),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Split", "Source", "Image", "Label", "Boxes"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

// findRun accepts a full run id or a prefix matching exactly one recent run.
func findRun(cmd *cobra.Command, store *journal.Store, idOrPrefix string) (*journal.Run, error) {
	if idOrPrefix == "" {
		return nil, errors.New("run id is required")
	}
	run, err := store.GetRun(cmd.Context(), idOrPrefix)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *journal.Run
	for _, candidate := range runs {
		if !strings.HasPrefix(candidate.ID, idOrPrefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("run %s not found", idOrPrefix)
	}
	return match, nil
}

func printRuns(out io.Writer, runs []*journal.Run) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			statusLabel(run.Status),
			valueOrDash(run.Project),
			run.Destination,
			duration,
			valueOrDash(run.FailureKind),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Status", "Project", "Destination", "Duration", "Failure"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

type splitView struct {
	Split      string   `json:"split"`
	DatasetARN string   `json:"dataset_arn"`
	Entries    int      `json:"entries"`
	Records    int      `json:"records"`
	Images     int      `json:"images"`
	Labels     int      `json:"labels"`
	Boxes      int      `json:"boxes"`
	Classes    []string `json:"classes"`
}

type runView struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	Project      string      `json:"project,omitempty"`
	Destination  string      `json:"destination"`
	LabelFormat  string      `json:"label_format"`
	FailureKind  string      `json:"failure_kind,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	Splits       []splitView `json:"splits,omitempty"`
	Files        []fileView  `json:"files,omitempty"`
}

type fileView struct {
	Split     string `json:"split"`
	SourceURI string `json:"source_uri"`
	ImagePath string `json:"image_path"`
	LabelPath string `json:"label_path,omitempty"`
	Boxes     int    `json:"boxes"`
}

func newFileViews(files []journal.FileRecord) []fileView {
	if len(files) == 0 {
		return nil
	}
	views := make([]fileView, 0, len(files))
	for _, file := range files {
		views = append(views, fileView{
			Split:     file.Split,
			SourceURI: file.SourceURI,
			ImagePath: file.ImagePath,
			LabelPath: file.LabelPath,
			Boxes:     file.Boxes,
		})
	}
	return views
}

func newRunView(run *journal.Run, splits []journal.SplitRecord) runView {
	view := runView{
		ID:           run.ID,
		Status:       string(run.Status),
		Project:      run.Project,
		Destination:  run.Destination,
		LabelFormat:  run.LabelFormat,
		FailureKind:  run.FailureKind,
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt,
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		view.FinishedAt = &finished
	}
	for _, split := range splits {
		view.Splits = append(view.Splits, splitView{
			Split:      split.Split,
			DatasetARN: split.DatasetARN,
			Entries:    split.Entries,
			Records:    split.Records,
			Images:     split.Images,
			Labels:     split.Labels,
			Boxes:      split.Boxes,
			Classes:    split.Classes,
		})
	}
	return view
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
