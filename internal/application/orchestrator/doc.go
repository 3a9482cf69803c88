// Package orchestrator coordinates node runs.
//
// The manager:
//   - rejects runs of missing, non-triggerable or already running nodes
//   - marks the node running, resolves its inputs and hands the run to the worker pool
//   - writes the outcome back through the graph store, where a deleted node
//     silently swallows it
//   - publishes graph and run events to the event bus
//
// Lifecycle holds the per-node run state machine (idle, running, succeeded,
// failed). The validator checks graphs before an import replaces the live one.
package orchestrator
