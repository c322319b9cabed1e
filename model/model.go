// Package model provides the low-level api for image conditioned generation
// against a multimodal inference engine.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/glimpsehq/glimpse/observ/metrics"
)

// Model owns the mutable state the bridge carries across requests: the
// single multimodal encoding context, the decode position cursor, and the
// sampler state. Calls must be serialized by the caller; no request may
// overlap another.
type Model struct {
	eng     Engine
	proj    Projector
	marker  string
	pos     int32
	sampler Sampler
}

// NewModel constructs a Model over the specified engine. The engine's text
// model and inference context are expected to be loaded by the host
// application before the multimodal operations are used.
func NewModel(eng Engine) *Model {
	return &Model{
		eng: eng,
	}
}

// Close releases the multimodal context and any sampler state. Safe to call
// more than once.
func (m *Model) Close() {
	m.CloseMultimodal()

	if m.sampler != nil {
		m.sampler.Close()
		m.sampler = nil
	}
}

// =============================================================================

// MultimodalConfig carries the settings for initializing the multimodal
// encoding context.
//
// ProjectorFile: Location of the multimodal projector model.
//
// UseGPU: Run the image encoder on the GPU.
//
// Threads: Number of encoder threads. Defaults to 1 if <= 0.
//
// ImageMarker: Override for the marker substring that anchors the image in
// the prompt. Leave empty for the engine's built-in marker.
type MultimodalConfig struct {
	ProjectorFile string
	UseGPU        bool
	Threads       int
	ImageMarker   string
}

// InitMultimodal stands up the multimodal encoding context bound to the
// already loaded text model. If a context already exists it is destroyed
// first, so calling this again is safe and leaves exactly one live context.
// On failure the model remains in the uninitialized state.
func (m *Model) InitMultimodal(cfg MultimodalConfig) error {
	if !m.eng.ModelLoaded() {
		return fmt.Errorf("init multimodal: %w", ErrModelNotLoaded)
	}

	m.CloseMultimodal()

	threads := int32(cfg.Threads)
	if threads <= 0 {
		threads = 1
	}

	marker := cfg.ImageMarker
	if marker == "" {
		marker = m.eng.DefaultMarker()
	}

	start := time.Now()

	proj, err := m.eng.OpenProjector(cfg.ProjectorFile, ProjectorConfig{
		UseGPU:      cfg.UseGPU,
		Threads:     threads,
		ImageMarker: marker,
	})
	if err != nil {
		return fmt.Errorf("open projector %q: %w: %v", cfg.ProjectorFile, ErrInitMultimodal, err)
	}

	metrics.AddProjFileLoadTime(time.Since(start))

	m.proj = proj
	m.marker = marker

	return nil
}

// MultimodalReady reports whether a multimodal context is live.
func (m *Model) MultimodalReady() bool {
	return m.proj != nil
}

// CloseMultimodal releases the multimodal context. Idempotent.
func (m *Model) CloseMultimodal() {
	if m.proj != nil {
		m.proj.Close()
		m.proj = nil
	}
}

// =============================================================================

// ProcessRequest represents a single image conditioned generation request.
//
// Image: Raw bitmap bytes, 3 bytes per pixel, row-major.
//
// Width, Height: Declared bitmap dimensions.
//
// Prompt: The text prompt. The image marker is appended if missing.
//
// UseCache: When true the attention cache and position cursor are left
// untouched so the request continues the previous sequence. Result quality
// depends entirely on caller discipline; there is no automatic invalidation
// when the prompt changes.
type ProcessRequest struct {
	Image    []byte
	Width    int32
	Height   int32
	Prompt   string
	UseCache bool
}

// ProcessImage runs the full pipeline for one request: bitmap build, chunk
// tokenization, cache preparation, chunk evaluation, and the bounded decode
// loop. On success it returns the generated text. On any failure it returns
// an error with no partial result, and the multimodal context is untouched.
// A failure mid-decode can leave the attention cache out of step with the
// position cursor; callers should retry with UseCache set to false.
func (m *Model) ProcessImage(ctx context.Context, req ProcessRequest) (string, error) {
	switch {
	case !m.eng.ModelLoaded(), !m.eng.ContextReady():
		return "", fmt.Errorf("process image: %w", ErrModelNotLoaded)

	case !m.MultimodalReady():
		return "", fmt.Errorf("process image: %w", ErrNotInitialized)
	}

	bitmap, err := NewBitmap(req.Image, req.Width, req.Height)
	if err != nil {
		return "", fmt.Errorf("process image: %w", err)
	}

	prompt := ensureMarker(req.Prompt, m.marker)

	chunks, err := m.eng.Tokenize(m.proj, newInputText(prompt), []*Bitmap{bitmap})
	if err != nil {
		return "", fmt.Errorf("process image: %w: %v", ErrTokenize, err)
	}

	m.prepare(req.UseCache)

	start := time.Now()

	if err := m.eng.Evaluate(m.proj, chunks, m.pos, seqID); err != nil {
		return "", fmt.Errorf("process image: %w: %v", ErrEvaluate, err)
	}

	metrics.AddImagePrefillTime(time.Since(start))

	m.advance(chunks.NTokens)

	if m.sampler != nil {
		m.sampler.Close()
	}
	m.sampler = m.eng.NewSampler(defaultSamplerParams())

	start = time.Now()
	genStart := m.pos

	text, _, err := m.generate(ctx, m.sampler)
	if err != nil {
		return "", fmt.Errorf("process image: %w", err)
	}

	generated := int(m.pos - genStart)
	duration := time.Since(start)

	metrics.AddGenerationTime(duration)
	metrics.AddProcessImageUsage(int(chunks.NTokens), generated, float64(generated)/duration.Seconds())

	return text, nil
}

// =============================================================================

// prepare clears the model's attention cache and resets the decode position
// cursor unless the caller asked to continue from the existing cache.
func (m *Model) prepare(useCache bool) {
	if useCache {
		return
	}

	m.eng.ClearMemory()
	m.pos = 0
}

// advance moves the decode position cursor forward. The cursor never
// decreases; the engine's own context size is the effective ceiling and
// surfaces as an evaluation failure.
func (m *Model) advance(n int32) {
	m.pos += n
}

// Pos returns the current decode position cursor.
func (m *Model) Pos() int32 {
	return m.pos
}
