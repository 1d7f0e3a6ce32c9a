// Package services defines the error taxonomy shared by the ingest
// pipeline: sentinel markers that classify a failure as fatal to the run
// or as a transient per-upload condition, plus a Wrap helper that tags
// errors with stage context.
package services
