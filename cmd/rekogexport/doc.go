// Package main hosts the rekogexport CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once per invocation, builds the
// AWS-backed lister and fetcher, and hands off to internal/exportrun. Local
// commands such as history and config read only the journal or the
// configuration file and never contact AWS.
//
// Add new behavior to the internal packages first and surface it here
// through a command or flag.
package main
