// Command voxpull ingests crowdsourced speech releases: it reconciles
// contributor identities against the durable speaker ledger, applies the
// inclusion policy, downloads admitted recordings to deterministic paths,
// and exports the per-speaker metadata table.
package main
