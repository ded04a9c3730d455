// Package daemonservice implements the daemon's service contract by
// orchestrating the registry, action verification and gate domains.
//
// Responsibilities:
// - Map transport-neutral calls onto domain usecases.
// - Record operation metrics and categorized errors at the boundary.
// - Log with the component/operation/correlation_id schema.
//
// Non-responsibilities:
// - Canonical encodings, signature checks and rule semantics (internal/domains/*).
// - Storage and chain access details (internal/registry, internal/chain).
package daemonservice
