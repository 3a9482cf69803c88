package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	bufferSize = 64
)

// Message kinds sent to clients
const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame of the graph stream
type Message struct {
	Kind     string          `json:"kind"`
	Topic    string          `json:"topic,omitempty"`
	Snapshot *graph.Snapshot `json:"snapshot,omitempty"`
	Event    *domain.Event   `json:"event,omitempty"`
}

// SnapshotFunc returns the current graph
type SnapshotFunc func() graph.Snapshot

// Handler streams graph and run events to WebSocket clients
type Handler struct {
	eventBus ports.EventBus
	snapshot SnapshotFunc
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, snapshot SnapshotFunc, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		snapshot: snapshot,
		logger:   logger,
	}
}

type envelope struct {
	topic string
	event domain.Event
}

// HandleGraphStream sends a snapshot, then every graph and run event until the client leaves
func (h *Handler) HandleGraphStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established", zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before the snapshot so no change falls between the two.
	events := make(chan envelope, bufferSize)
	if err := h.subscribe(ctx, events); err != nil {
		h.logger.Error("failed to subscribe to events", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		return
	}

	// The client sends nothing; reading detects when it goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	snap := h.snapshot()
	if err := h.write(conn, Message{Kind: MessageSnapshot, Snapshot: &snap}); err != nil {
		h.logger.Debug("failed to send snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket connection closed", zap.String("client", c.ClientIP()))
			return
		case env := <-events:
			event := env.event
			if err := h.write(conn, Message{Kind: MessageEvent, Topic: env.topic, Event: &event}); err != nil {
				h.logger.Debug("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// subscribe forwards both topics into ch until ctx is cancelled
func (h *Handler) subscribe(ctx context.Context, ch chan<- envelope) error {
	for _, topic := range []string{domain.TopicGraph, domain.TopicRuns} {
		topic := topic
		handler := func(ctx context.Context, event domain.Event) error {
			select {
			case ch <- envelope{topic: topic, event: event}:
			case <-ctx.Done():
				return ctx.Err()
			default:
				h.logger.Warn("client too slow, dropping event",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)))
			}
			return nil
		}
		if err := h.eventBus.Subscribe(ctx, topic, handler); err != nil {
			return err
		}
	}
	return nil
}
