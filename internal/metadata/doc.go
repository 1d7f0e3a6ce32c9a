// Package metadata folds per-upload facts into per-speaker summary rows
// and emits the per-upload JSON sidecars plus the dated tabular export.
package metadata
