package glimpse

import (
	"context"
	"fmt"

	"github.com/glimpsehq/glimpse/model"
)

// InitMultimodal stands up the multimodal encoding context against the
// loaded text model. Failures are reported in the response rather than as an
// error so the host application always gets a well formed reply.
func (g *Glimpse) InitMultimodal(ctx context.Context, req InitMultimodalRequest) InitMultimodalResponse {
	f := func(m *model.Model) (resp InitMultimodalResponse) {
		defer recoverToResponse(&resp, initFailure)

		cfg := model.MultimodalConfig{
			ProjectorFile: req.ProjectorFile,
			UseGPU:        req.UseGPU,
			Threads:       req.Threads,
			ImageMarker:   req.ImageMarker,
		}

		if err := m.InitMultimodal(cfg); err != nil {
			return initFailure(err)
		}

		return InitMultimodalResponse{
			Success: true,
		}
	}

	return serialize(ctx, g, f, initFailure)
}

// ProcessImage runs one image conditioned generation request end to end and
// returns the generated text in the response. Requests are serialized;
// callers block until the bridge is free or ctx expires.
func (g *Glimpse) ProcessImage(ctx context.Context, req ProcessImageRequest) ProcessImageResponse {
	image, err := imageBytes(req)
	if err != nil {
		return processFailure(err)
	}

	f := func(m *model.Model) (resp ProcessImageResponse) {
		defer recoverToResponse(&resp, processFailure)

		mreq := model.ProcessRequest{
			Image:    image,
			Width:    req.Width,
			Height:   req.Height,
			Prompt:   req.Prompt,
			UseCache: req.UseCache,
		}

		text, err := m.ProcessImage(ctx, mreq)
		if err != nil {
			return processFailure(err)
		}

		return ProcessImageResponse{
			Success: true,
			Result:  text,
		}
	}

	return serialize(ctx, g, f, processFailure)
}

// =============================================================================

// imageBytes reconciles the declared data size with the bytes actually
// provided. A declared size larger than the payload is a hard error; a
// smaller one truncates, matching callers that reuse a larger buffer.
func imageBytes(req ProcessImageRequest) ([]byte, error) {
	switch {
	case req.DataSize < 0 || req.DataSize > len(req.Image):
		return nil, fmt.Errorf("data size %d does not match %d bytes of image data: %w", req.DataSize, len(req.Image), model.ErrInvalidImage)

	case req.DataSize == 0:
		return req.Image, nil
	}

	return req.Image[:req.DataSize], nil
}

func initFailure(err error) InitMultimodalResponse {
	return InitMultimodalResponse{
		Error: err.Error(),
	}
}

func processFailure(err error) ProcessImageResponse {
	return ProcessImageResponse{
		Error: err.Error(),
	}
}

// recoverToResponse converts a panic below the bridge boundary into a failed
// response. The C side of the engine can fault in ways that surface as
// panics through the bindings; the host application must still get a reply.
func recoverToResponse[T any](resp *T, ef errorFunc[T]) {
	if r := recover(); r != nil {
		*resp = ef(fmt.Errorf("internal error: %v", r))
	}
}
