package nodes

import (
	"context"
	"fmt"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
)

const defaultVideoPrompt = "Animate this image"

// VideoDirector builds a video URL from a prompt and/or an image
type VideoDirector struct {
	client ports.GenerationClient
}

// NewVideoDirector creates the VideoDirector behaviour
func NewVideoDirector(client ports.GenerationClient) *VideoDirector {
	return &VideoDirector{client: client}
}

// StartPatch implements Triggerable
func (v *VideoDirector) StartPatch() domain.Patch {
	return domain.Patch{domain.FieldIsLoading: true, domain.FieldError: nil}
}

// Run implements Triggerable
func (v *VideoDirector) Run(ctx context.Context, req RunRequest) (Outcome, error) {
	data, ok := req.Node.Data.(domain.VideoDirectorData)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: node %s", domain.ErrKindMismatch, req.Node.ID)
	}

	prompt := preferConnected(req.Inputs, data.Prompt, promptSources...)
	image := preferConnected(req.Inputs, data.ImageURL, imageSources...)
	if prompt == "" && image == "" {
		return Outcome{}, fmt.Errorf("%w: no prompt or image provided", domain.ErrMissingInput)
	}
	if prompt == "" {
		prompt = defaultVideoPrompt
	}

	url := v.client.VideoURL(&domain.VideoRequest{
		Prompt:   prompt,
		Model:    data.Model,
		ImageURL: image,
	})
	return Outcome{Patch: domain.Patch{domain.FieldOutputURL: url}}, nil
}
