package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rekogexport/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, AWS access, and dataset resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			local := *cfg
			if project != "" {
				local.Rekognition.Project = project
				local.Rekognition.TrainDatasetARN = ""
				local.Rekognition.TestDatasetARN = ""
			}
			logger, err := newCommandLogger(&local)
			if err != nil {
				return err
			}

			var probes preflight.Probes
			remote, err := ctx.newDeps(&local, logger)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "AWS session: %v\n", err)
			} else {
				probes = preflight.Probes{
					Region:      remote.region,
					Credentials: remote.credentials,
					Resolver:    remote.resolver,
				}
			}

			results := preflight.RunAll(cmd.Context(), &local, probes)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "OK"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if failed := preflight.Failed(results); failed > 0 {
				return fmt.Errorf("%s failed", plural(failed, "check", "checks"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Rekognition project name (overrides configured dataset ARNs)")
	return cmd
}
