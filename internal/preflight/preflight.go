package preflight

import (
	"context"

	"rekogexport/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Probes are the remote collaborators checked by RunAll. Nil probes are
// reported as failed checks.
type Probes struct {
	Region      string
	Credentials CredentialSource
	Resolver    DatasetResolver
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config, probes Probes) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Destination directory", cfg.Paths.DestinationDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckRegion(cfg.AWS.Region, probes.Region),
		CheckCredentials(ctx, probes.Credentials),
	}

	// Dataset resolution needs credentials; skip the call when they failed.
	if !results[len(results)-1].Passed {
		return append(results, Result{Name: datasetsCheck, Detail: "skipped (no credentials)"})
	}
	return append(results, CheckDatasets(ctx, cfg, probes.Resolver))
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
