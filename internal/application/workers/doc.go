// Package workers runs node executions off the request path.
//
// The pool owns a fixed number of goroutines reading from a bounded job queue:
//   - Submit blocks while the queue is full and fails once the pool stops
//   - a panicking job is logged and the worker keeps going
//   - Shutdown closes the queue; queued jobs still run, with a cancelled context
//
// The health monitor samples worker status on a ticker, records it as metrics
// and notifies watchers such as the gRPC health service.
package workers
