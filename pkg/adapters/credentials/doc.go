// Package credentials provides API key storage implementations.
//
// Implementations:
//   - redis: Redis string key, survives restarts and is shared between instances
//   - memory: In-memory for testing and single-process use
package credentials
