// Package ledger persists the durable speaker registry: one row per user
// key carrying the assigned speaker id and the approved-upload count
// recorded when the key was first seen. Rows are append-only; existing
// rows are never reordered, removed, or rewritten in place.
package ledger
