package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
)

func outputsOf(s *graph.Store, source string) []domain.Node {
	var out []domain.Node
	for _, e := range s.OutgoingEdges(source) {
		if n, ok := s.Node(e.Target); ok && n.Kind == domain.KindImageOutput {
			out = append(out, n)
		}
	}
	return out
}

func int64p(v int64) *int64 { return &v }

func TestImageGenerator_FanOutWithRandomSeeds(t *testing.T) {
	client := &fakeClient{}
	s := newStore(nil)
	add(t, s, "g", domain.Position{X: 100, Y: 500}, domain.ImageGeneratorData{
		Model: "flux", Prompt: "sunset", Width: 512, Height: 512, ImageCount: 3,
	})

	gen := NewImageGenerator(client, zap.NewNop(), WithNodeIDs(seqIDs("img")))
	out, err := gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)
	assert.Empty(t, out.Patch)

	outputs := outputsOf(s, "g")
	require.Len(t, outputs, 3)

	seen := make(map[int64]bool)
	for i, n := range outputs {
		data := n.Data.(domain.ImageOutputData)
		assert.Equal(t, i, data.Index)
		assert.Equal(t, "Image "+string(rune('1'+i)), data.Label)
		require.NotNil(t, data.Seed)
		assert.False(t, seen[*data.Seed], "seed %d repeated", *data.Seed)
		seen[*data.Seed] = true
		assert.NotEmpty(t, data.ImageURL)

		assert.Equal(t, 480.0, n.Position.X)
		assert.Equal(t, 500.0+float64(i*280)-280, n.Position.Y)
	}
	require.Len(t, client.images, 3)
	assert.Equal(t, "sunset", client.images[0].Prompt)
}

func TestImageGenerator_RerunReplacesOutputs(t *testing.T) {
	client := &fakeClient{}
	s := newStore(nil)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "sunset", ImageCount: 2})
	add(t, s, "d", domain.Position{}, domain.DisplayData{})
	wire(t, s, "g", "d")

	gen := NewImageGenerator(client, zap.NewNop(), WithNodeIDs(seqIDs("img")))
	_, err := gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)
	first := outputsOf(s, "g")
	require.Len(t, first, 2)

	_, err = gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)
	second := outputsOf(s, "g")
	require.Len(t, second, 2)

	for _, old := range first {
		_, ok := s.Node(old.ID)
		assert.False(t, ok, "stale output %s survived", old.ID)
	}
	// Non-output children are left alone.
	_, ok := s.Node("d")
	assert.True(t, ok)
	assert.Len(t, s.Nodes(), 4)
}

func TestImageGenerator_BaseSeed(t *testing.T) {
	client := &fakeClient{}
	s := newStore(nil)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "sunset", Seed: int64p(100), ImageCount: 2})

	gen := NewImageGenerator(client, zap.NewNop(), WithNodeIDs(seqIDs("img")))
	_, err := gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)

	outputs := outputsOf(s, "g")
	require.Len(t, outputs, 2)
	assert.Equal(t, int64(100), *outputs[0].Data.(domain.ImageOutputData).Seed)
	assert.Equal(t, int64(101), *outputs[1].Data.(domain.ImageOutputData).Seed)
	assert.Equal(t, int64(100), client.images[0].Seed)
	assert.Equal(t, int64(101), client.images[1].Seed)
}

func TestImageGenerator_DistinctSeedsFromRepeatingSource(t *testing.T) {
	values := []int64{7, 7, 7, 9, 9, 11}
	i := 0
	source := func() int64 {
		v := values[i%len(values)]
		i++
		return v
	}

	s := newStore(nil)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "sunset", ImageCount: 3})

	gen := NewImageGenerator(&fakeClient{}, zap.NewNop(), WithSeedSource(source), WithNodeIDs(seqIDs("img")))
	_, err := gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)

	var seeds []int64
	for _, n := range outputsOf(s, "g") {
		seeds = append(seeds, *n.Data.(domain.ImageOutputData).Seed)
	}
	assert.Equal(t, []int64{7, 9, 11}, seeds)
}

func TestImageGenerator_ConnectedPromptWins(t *testing.T) {
	client := &fakeClient{}
	s := newStore(nil)
	add(t, s, "p", domain.Position{}, domain.PromptData{Prompt: "cat"})
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "dog", ImageCount: 1})
	wire(t, s, "p", "g")

	_, err := NewImageGenerator(client, zap.NewNop()).Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)
	require.Len(t, client.images, 1)
	assert.Equal(t, "cat", client.images[0].Prompt)
}

func TestImageGenerator_MissingPrompt(t *testing.T) {
	s := newStore(nil)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{ImageCount: 2})

	_, err := NewImageGenerator(&fakeClient{}, zap.NewNop()).Run(context.Background(), request(t, s, "g"))
	require.ErrorIs(t, err, domain.ErrMissingInput)
	assert.Contains(t, err.Error(), "no prompt provided")
	assert.Len(t, s.Nodes(), 1)
}

func TestImageGenerator_SourceDeletedMidRun(t *testing.T) {
	s := newStore(nil)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "sunset", ImageCount: 2})
	req := request(t, s, "g")
	s.DeleteNode("g")

	out, err := NewImageGenerator(&fakeClient{}, zap.NewNop()).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, out.Patch)
	assert.Empty(t, s.Nodes())
}

func TestClampImageCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: -3, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 4, want: 4},
		{in: 8, want: 8},
		{in: 20, want: 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampImageCount(tt.in), "ClampImageCount(%d)", tt.in)
	}
}

func TestImageGenerator_OutputsFeedDisplay(t *testing.T) {
	r := NewRegistry(&fakeClient{}, zap.NewNop(), WithNodeIDs(seqIDs("img")))
	s := newStore(r)
	add(t, s, "g", domain.Position{}, domain.ImageGeneratorData{Prompt: "sunset", Seed: int64p(5), ImageCount: 1})

	gen, ok := r.Triggerable(domain.KindImageGenerator)
	require.True(t, ok)
	_, err := gen.Run(context.Background(), request(t, s, "g"))
	require.NoError(t, err)

	outputs := outputsOf(s, "g")
	require.Len(t, outputs, 1)
	add(t, s, "d", domain.Position{}, domain.DisplayData{})
	wire(t, s, outputs[0].ID, "d")

	v, ok := s.EmittedValue("d")
	require.True(t, ok)
	assert.Equal(t, "https://img.test/sunset?seed=5", v)
}
