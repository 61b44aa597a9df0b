// Package manifest pages through the labeling service's dataset listing and
// yields raw per-record manifest entries.
//
// Paging is inherently serial: each request carries the continuation token
// returned by the previous page. A listing failure ends the sequence with an
// error tagged services.ErrService; callers abort rather than assemble a
// partial dataset.
package manifest
