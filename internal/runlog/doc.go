// Package runlog journals ingest runs in SQLite. The journal is an audit
// trail: the ledger alone decides identity, but the journal records what
// each run admitted, skipped, and failed, per upload, so an operator can
// answer "why is this speaker missing" weeks later.
package runlog
