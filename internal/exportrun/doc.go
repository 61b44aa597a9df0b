// Package exportrun drives a complete export: it locks the destination root,
// resolves which datasets to export, and for each split fetches the manifest,
// builds the dataset, and materializes it. Runs are recorded in the journal
// when one is supplied.
package exportrun
