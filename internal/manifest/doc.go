// Package manifest reads one release's structured inputs: the task/upload
// JSON tree, the script-code CSV, the acoustic-environment CSV, and the
// topic-code tables. Everything it returns is immutable for the run.
package manifest
