// Package preflight provides readiness checks for the filesystem paths and
// AWS access an export depends on.
//
// `rekogexport check` runs RunAll and prints one row per Result. Each check
// carries its own timeout so an unreachable endpoint cannot hang the CLI.
package preflight
