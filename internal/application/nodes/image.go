package nodes

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinImages = 1
	MaxImages = 8

	// Spawned outputs sit to the right of the generator, stacked vertically
	// and centred on it.
	outputOffsetX  = 380
	outputSpacingY = 280
)

// ImageGenerator fans out: every run replaces the ImageOutput nodes it spawned
// before with a fresh set, one per requested image, each wired from the generator.
type ImageGenerator struct {
	client ports.GenerationClient
	logger *zap.Logger
	seeds  func() int64
	newID  func() string
}

// ImageOption configures the ImageGenerator behaviour
type ImageOption func(*ImageGenerator)

// WithSeedSource replaces the random seed source
func WithSeedSource(fn func() int64) ImageOption {
	return func(g *ImageGenerator) { g.seeds = fn }
}

// WithNodeIDs replaces the id generator for spawned nodes
func WithNodeIDs(fn func() string) ImageOption {
	return func(g *ImageGenerator) { g.newID = fn }
}

// NewImageGenerator creates the ImageGenerator behaviour
func NewImageGenerator(client ports.GenerationClient, logger *zap.Logger, opts ...ImageOption) *ImageGenerator {
	g := &ImageGenerator{
		client: client,
		logger: logger,
		seeds:  randomSeed,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func randomSeed() int64 {
	return rand.Int63n(math.MaxInt32-1) + 1
}

// StartPatch implements Triggerable
func (g *ImageGenerator) StartPatch() domain.Patch {
	return domain.Patch{domain.FieldIsLoading: true, domain.FieldError: nil}
}

// Run implements Triggerable
func (g *ImageGenerator) Run(ctx context.Context, req RunRequest) (Outcome, error) {
	data, ok := req.Node.Data.(domain.ImageGeneratorData)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: node %s", domain.ErrKindMismatch, req.Node.ID)
	}

	prompt := preferConnected(req.Inputs, data.Prompt, promptSources...)
	if prompt == "" {
		return Outcome{}, fmt.Errorf("%w: no prompt provided", domain.ErrMissingInput)
	}

	// Re-read the generator: it may have moved, or been deleted, since the run began.
	source, ok := req.Graph.Node(req.Node.ID)
	if !ok {
		return Outcome{}, nil
	}

	removed := g.clearOutputs(req.Graph, source.ID)

	count := ClampImageCount(data.ImageCount)
	seeds := g.seedsFor(data.Seed, count)
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		url := g.client.ImageURL(&domain.ImageRequest{
			Prompt: prompt,
			Model:  data.Model,
			Width:  data.Width,
			Height: data.Height,
			Seed:   seed,
		})
		if err := g.spawn(req.Graph, source, i, count, seed, url); err != nil {
			return Outcome{}, err
		}
	}

	g.logger.Debug("image outputs spawned",
		zap.String("node_id", source.ID),
		zap.Int("count", count),
		zap.Int("replaced", removed))

	return Outcome{}, nil
}

// ClampImageCount bounds a requested image count to [MinImages, MaxImages]
func ClampImageCount(n int) int {
	if n < MinImages {
		return MinImages
	}
	if n > MaxImages {
		return MaxImages
	}
	return n
}

// clearOutputs deletes the ImageOutput children still wired to the generator
func (g *ImageGenerator) clearOutputs(gr Graph, sourceID string) int {
	removed := 0
	for _, e := range gr.OutgoingEdges(sourceID) {
		child, ok := gr.Node(e.Target)
		if !ok || child.Kind != domain.KindImageOutput {
			continue
		}
		gr.DeleteNode(child.ID)
		removed++
	}
	return removed
}

// seedsFor returns base+i for an explicit base seed, or distinct random seeds
func (g *ImageGenerator) seedsFor(base *int64, count int) []int64 {
	seeds := make([]int64, count)
	if base != nil {
		for i := range seeds {
			seeds[i] = *base + int64(i)
		}
		return seeds
	}

	used := make(map[int64]bool, count)
	for i := range seeds {
		seed := g.seeds()
		for attempt := 0; used[seed] && attempt < 32; attempt++ {
			seed = g.seeds()
		}
		used[seed] = true
		seeds[i] = seed
	}
	return seeds
}

func (g *ImageGenerator) spawn(gr Graph, source domain.Node, index, count int, seed int64, url string) error {
	pos := domain.Position{
		X: source.Position.X + outputOffsetX,
		Y: source.Position.Y + float64(index*outputSpacingY) - float64((count-1)*outputSpacingY)/2,
	}
	child, err := domain.NewNode(g.newID(), domain.KindImageOutput, pos, domain.ImageOutputData{
		Label:    fmt.Sprintf("Image %d", index+1),
		ImageURL: url,
		Index:    index,
		Seed:     &seed,
	})
	if err != nil {
		return err
	}
	if err := gr.AddNode(child); err != nil {
		return fmt.Errorf("failed to add image output: %w", err)
	}
	if _, err := gr.AddEdge(domain.Connection{Source: source.ID, Target: child.ID}); err != nil {
		gr.DeleteNode(child.ID)
		return fmt.Errorf("failed to wire image output: %w", err)
	}
	return nil
}
