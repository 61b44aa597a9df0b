package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"rekogexport/internal/dataset"
	"rekogexport/internal/exportrun"
)

func newClassesCommand(ctx *commandContext) *cobra.Command {
	var selection selectionFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the class index of each split without downloading images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, opts, err := selection.resolve(cfg)
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

			runner := exportrun.New(exportrun.Deps{
				Lister:   remote.lister,
				Resolver: remote.resolver,
				Logger:   logger,
			})
			reports, err := runner.Inspect(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, newClassesView(reports))
			}
			printClasses(cmd.OutOrStdout(), reports)
			return nil
		},
	}

	selection.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the class index as JSON")
	return cmd
}

func printClasses(out io.Writer, reports []exportrun.SplitReport) {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		ds := report.Dataset
		counts := ds.ClassBoxCounts()
		names := dataset.NewClassIndex(ds.Classes).Names()
		rows := make([][]string, 0, len(names))
		for idx, name := range names {
			rows = append(rows, []string{strconv.Itoa(idx), name, strconv.Itoa(counts[name])})
		}
		fmt.Fprintf(out, "%s (%s, %s, %s)\n",
			splitLabel(report.Split),
			plural(len(ds.Records), "image", "images"),
			plural(ds.NegativeCount(), "negative", "negatives"),
			plural(report.Entries, "entry", "entries"),
		)
		if len(rows) == 0 {
			fmt.Fprintln(out, "No classes")
			continue
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Index", "Class", "Boxes"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight},
		))
	}
}

type classView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Boxes int    `json:"boxes"`
}

type splitClassesView struct {
	Split      string      `json:"split"`
	DatasetARN string      `json:"dataset_arn"`
	Entries    int         `json:"entries"`
	Images     int         `json:"images"`
	Negatives  int         `json:"negatives"`
	Classes    []classView `json:"classes"`
}

func newClassesView(reports []exportrun.SplitReport) []splitClassesView {
	views := make([]splitClassesView, 0, len(reports))
	for _, report := range reports {
		ds := report.Dataset
		counts := ds.ClassBoxCounts()
		names := dataset.NewClassIndex(ds.Classes).Names()
		view := splitClassesView{
			Split:      string(report.Split),
			DatasetARN: report.DatasetARN,
			Entries:    report.Entries,
			Images:     len(ds.Records),
			Negatives:  ds.NegativeCount(),
			Classes:    make([]classView, 0, len(names)),
		}
		for idx, name := range names {
			view.Classes = append(view.Classes, classView{Index: idx, Name: name, Boxes: counts[name]})
		}
		views = append(views, view)
	}
	return views
}
