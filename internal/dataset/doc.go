// Package dataset turns raw labeling-service manifest entries into a uniform
// in-memory model.
//
// Two upstream entry shapes exist: entries carrying a bounding-box job output
// (a key ending in "_BB" plus its "-metadata" sibling with the class map), and
// explicit negatives marked NOT_RELEVANT by the auto-labeler. Both normalize to
// Record. Everything else is dropped. The raw key/value maps never leave this
// package.
//
// ClassIndex assigns the integer ids written to label files. It is derived by
// sorting class names so repeated exports of the same class set agree.
package dataset
