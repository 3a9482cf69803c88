// Package events provides event bus implementations.
//
// Implementations:
//   - memory: per-subscriber ordered queues, single process
//   - redis: Redis Streams with one consumer group per server instance
package events
