package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rekogexport/internal/dataset"
	"rekogexport/internal/journal"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// splitLabel renders a split as "Train (train)" or "Test (val)".
func splitLabel[S ~string](split S) string {
	name := titleCase(strings.ToLower(string(split)))
	dir, err := dataset.SplitKind(split).Dir()
	if err != nil {
		return name
	}
	return name + " (" + dir + ")"
}

func statusLabel(status journal.Status) string {
	return titleCase(string(status))
}

// titleCase builds a fresh Caser per call; a Caser keeps state between calls.
func titleCase(value string) string {
	return cases.Title(language.English).String(value)
}
