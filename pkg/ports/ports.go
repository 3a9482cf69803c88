// Package ports declares the interfaces the application layer depends on.
// Adapters under pkg/adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/genflow/pkg/domain"
)

// GenerationClient talks to the remote text/image/video service
type GenerationClient interface {
	GenerateText(ctx context.Context, req *domain.TextRequest) (string, error)
	// StreamText calls onDelta for every content fragment until the stream ends.
	StreamText(ctx context.Context, req *domain.TextRequest, onDelta func(string) error) error
	ImageURL(req *domain.ImageRequest) string
	VideoURL(req *domain.VideoRequest) string
}

// KeyValidator probes whether an API key is accepted by the service
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, key string) bool
}

// CredentialStore persists the API key
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// EventHandler handles an event delivered by the bus
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus fans graph and run events out to subscribers
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records engine metrics
type MetricsCollector interface {
	RecordRun(kind string, status string, duration time.Duration)
	RecordRunRejected(kind string, reason string)
	RecordGenerationCall(operation string, model string, duration time.Duration, err error)
	RecordGraphSize(nodes, edges int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
	RecordQueueDepth(depth int)
}
