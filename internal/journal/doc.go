// Package journal records export runs in a SQLite database under the log
// directory.
//
// Each run stores its outcome and failure kind, a per-split summary, and the
// mapping from every source image URI to the hashed image and label files it
// produced. The history command reads it back; nothing in the export path
// depends on earlier runs.
package journal
