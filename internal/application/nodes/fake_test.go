package nodes

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
)

// fakeClient records requests and answers with canned values
type fakeClient struct {
	mu       sync.Mutex
	text     []*domain.TextRequest
	images   []*domain.ImageRequest
	videos   []*domain.VideoRequest
	reply    string
	deltas   []string
	err      error
	imageURL func(*domain.ImageRequest) string
}

func (f *fakeClient) GenerateText(ctx context.Context, req *domain.TextRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = append(f.text, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) StreamText(ctx context.Context, req *domain.TextRequest, onDelta func(string) error) error {
	f.mu.Lock()
	f.text = append(f.text, req)
	deltas, err := f.deltas, f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	for _, d := range deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) ImageURL(req *domain.ImageRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, req)
	if f.imageURL != nil {
		return f.imageURL(req)
	}
	return fmt.Sprintf("https://img.test/%s?seed=%d", req.Prompt, req.Seed)
}

func (f *fakeClient) VideoURL(req *domain.VideoRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos = append(f.videos, req)
	return fmt.Sprintf("https://video.test/%s.mp4?image=%s", req.Prompt, req.ImageURL)
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newStore(r *Registry) *graph.Store {
	opts := []graph.Option{graph.WithIDGenerator(seqIDs("e"))}
	if r != nil {
		opts = append(opts, graph.WithReactive(r.Reactive))
	}
	return graph.NewStore(zap.NewNop(), opts...)
}

func add(t *testing.T, s *graph.Store, id string, pos domain.Position, data domain.Payload) domain.Node {
	t.Helper()
	n, err := domain.NewNode(id, data.Kind(), pos, data)
	require.NoError(t, err)
	require.NoError(t, s.AddNode(n))
	return n
}

func wire(t *testing.T, s *graph.Store, source, target string) {
	t.Helper()
	_, err := s.AddEdge(domain.Connection{Source: source, Target: target})
	require.NoError(t, err)
}

// request builds a run request from the store's current view of id
func request(t *testing.T, s *graph.Store, id string) RunRequest {
	t.Helper()
	n, ok := s.Node(id)
	require.True(t, ok)
	return RunRequest{Node: n, Inputs: s.ConnectedInputs(id), Graph: s}
}
