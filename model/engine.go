package model

// Token is a single vocabulary token id produced or consumed by the engine.
type Token int32

// Engine abstracts the llamacpp surface the bridge needs. The production
// implementation is backed by yzma. Tests provide a stub so the request
// pipeline can be exercised without model weights.
type Engine interface {
	// ModelLoaded reports whether the host application has loaded a
	// text model.
	ModelLoaded() bool

	// ContextReady reports whether an inference context exists for decoding.
	ContextReady() bool

	// DefaultMarker returns the engine's built-in image marker.
	DefaultMarker() string

	// OpenProjector loads the multimodal projector at the specified path and
	// binds it to the loaded text model.
	OpenProjector(path string, cfg ProjectorConfig) (Projector, error)

	// Tokenize combines the prompt and the bitmaps into an ordered sequence
	// of encoded chunks.
	Tokenize(proj Projector, text InputText, bitmaps []*Bitmap) (*ChunkSeq, error)

	// Evaluate runs the chunk sequence through the model starting at the
	// specified position on the specified sequence id. The chunk sequence is
	// consumed by this call and can't be evaluated twice.
	Evaluate(proj Projector, chunks *ChunkSeq, pos int32, seq int32) error

	// Decode submits a single generated token back to the model at the
	// specified position.
	Decode(token Token, pos int32) error

	// ClearMemory clears the model's attention cache for all sequences.
	ClearMemory()

	// NewSampler constructs fresh sampler state from the specified
	// parameters. The caller owns the sampler and must close it.
	NewSampler(params SamplerParams) Sampler
}

// Projector represents a live multimodal encoding context.
type Projector interface {
	Close()
}

// Sampler selects the next token from the model output probabilities under
// the configured parameters and maintains the acceptance history used for
// repetition aware sampling.
type Sampler interface {
	Sample(pos int32) Token
	Accept(token Token)
	IsEOG(token Token) bool
	Piece(token Token) string
	Close()
}

// ProjectorConfig carries the encoder configuration used when opening a
// multimodal projector.
type ProjectorConfig struct {
	UseGPU      bool
	Threads     int32
	ImageMarker string
}

// InputText is a prompt plus the tokenizer flags that control how
// model-specific special tokens are handled.
type InputText struct {
	Text         string
	AddSpecial   bool
	ParseSpecial bool
}

// ChunkSeq is an ordered sequence of encoded chunks produced from one
// (prompt, bitmaps) pair. Handle is owned by the engine. NTokens is the
// number of cache positions the sequence occupies once evaluated.
type ChunkSeq struct {
	Handle  any
	NTokens int32
}
