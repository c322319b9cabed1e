package model

import (
	"fmt"
	"unsafe"

	"github.com/hybridgroup/yzma/pkg/llama"
	"github.com/hybridgroup/yzma/pkg/mtmd"
)

// LlamaEngine implements Engine over the yzma llamacpp bindings. It owns the
// text model and the inference context the host application loads at
// startup.
type LlamaEngine struct {
	model     llama.Model
	vocab     llama.Vocab
	lctx      llama.Context
	batchSize int32
}

// NewLlamaEngine loads the text model and constructs the inference context.
// The yzma libraries must already be loaded.
func NewLlamaEngine(cfg Config) (*LlamaEngine, error) {
	mparams := llama.ModelDefaultParams()
	if cfg.Device != "" {
		dev := llama.GGMLBackendDeviceByName(cfg.Device)
		if dev == 0 {
			return nil, fmt.Errorf("unknown device: %s", cfg.Device)
		}
		mparams.SetDevices([]llama.GGMLBackendDevice{dev})
	}

	mdl, err := llama.ModelLoadFromFile(cfg.ModelFile, mparams)
	if err != nil {
		return nil, fmt.Errorf("unable to load model: %w", err)
	}

	vocab := llama.ModelGetVocab(mdl)

	ctxParams := llama.ContextDefaultParams()
	if cfg.ContextWindow > 0 {
		ctxParams.NCtx = cfg.ContextWindow
		ctxParams.NBatch = cfg.ContextWindow
		ctxParams.NUbatch = cfg.ContextWindow
	}

	lctx, err := llama.InitFromModel(mdl, ctxParams)
	if err != nil {
		llama.ModelFree(mdl)
		return nil, fmt.Errorf("unable to init from model: %w", err)
	}

	e := LlamaEngine{
		model:     mdl,
		vocab:     vocab,
		lctx:      lctx,
		batchSize: int32(ctxParams.NBatch),
	}

	return &e, nil
}

// Unload releases the inference context, the model, and the backend. You
// should call this only when you are completely done using the engine.
func (e *LlamaEngine) Unload() {
	llama.Synchronize(e.lctx)
	llama.Free(e.lctx)
	llama.ModelFree(e.model)
	llama.BackendFree()
}

// ModelLoaded reports whether the text model weights are loaded.
func (e *LlamaEngine) ModelLoaded() bool {
	return e.model != 0
}

// ContextReady reports whether the inference context exists.
func (e *LlamaEngine) ContextReady() bool {
	return e.lctx != 0
}

// DefaultMarker returns the built-in media marker.
func (e *LlamaEngine) DefaultMarker() string {
	return mtmd.DefaultMarker()
}

// OpenProjector loads the multimodal projector and binds it to the model.
func (e *LlamaEngine) OpenProjector(path string, cfg ProjectorConfig) (Projector, error) {
	mctxParams := mtmd.ContextParamsDefault()
	mctxParams.UseGPU = cfg.UseGPU
	mctxParams.Threads = cfg.Threads

	mctx, err := mtmd.InitFromFile(path, e.model, mctxParams)
	if err != nil {
		return nil, fmt.Errorf("unable to init mtmd context: %w", err)
	}

	p := llamaProjector{
		ctx: mctx,
	}

	return &p, nil
}

// Tokenize produces the encoded chunk sequence for the prompt and bitmaps.
// The engine copies bitmap data into the chunks, so the bitmaps are released
// before returning.
func (e *LlamaEngine) Tokenize(proj Projector, text InputText, bitmaps []*Bitmap) (*ChunkSeq, error) {
	lp := proj.(*llamaProjector)

	bms := make([]mtmd.Bitmap, 0, len(bitmaps))
	defer func() {
		for _, bm := range bms {
			mtmd.BitmapFree(bm)
		}
	}()

	for _, bitmap := range bitmaps {
		bm := mtmd.BitmapInit(uint32(bitmap.Width), uint32(bitmap.Height), uintptr(unsafe.Pointer(unsafe.SliceData(bitmap.Data))))
		if bm == 0 {
			return nil, fmt.Errorf("unable to create bitmap %dx%d", bitmap.Width, bitmap.Height)
		}
		bms = append(bms, bm)
	}

	chunks := mtmd.InputChunksInit()
	input := mtmd.NewInputText(text.Text, text.AddSpecial, text.ParseSpecial)

	if ret := mtmd.Tokenize(lp.ctx, chunks, input, bms); ret != 0 {
		mtmd.InputChunksFree(chunks)
		return nil, fmt.Errorf("tokenize returned %d", ret)
	}

	var n int32
	for i := range mtmd.InputChunksSize(chunks) {
		chunk := mtmd.InputChunksGet(chunks, i)
		n += int32(mtmd.InputChunkGetNTokens(chunk))
	}

	cs := ChunkSeq{
		Handle:  chunks,
		NTokens: n,
	}

	return &cs, nil
}

// Evaluate runs the chunk sequence through the model. The chunks are freed
// whether evaluation succeeds or not.
func (e *LlamaEngine) Evaluate(proj Projector, chunks *ChunkSeq, pos int32, seq int32) error {
	lp := proj.(*llamaProjector)
	cs := chunks.Handle.(mtmd.InputChunks)

	defer mtmd.InputChunksFree(cs)

	var nPast llama.Pos
	if ret := mtmd.HelperEvalChunks(lp.ctx, e.lctx, cs, llama.Pos(pos), llama.SeqId(seq), e.batchSize, true, &nPast); ret != 0 {
		return fmt.Errorf("eval chunks returned %d", ret)
	}

	return nil
}

// Decode submits a single generated token at the current position.
func (e *LlamaEngine) Decode(token Token, pos int32) error {
	batch := llama.BatchGetOne([]llama.Token{llama.Token(token)})

	if _, err := llama.Decode(e.lctx, batch); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}

// ClearMemory clears the attention cache for all sequences.
func (e *LlamaEngine) ClearMemory() {
	mem, err := llama.GetMemory(e.lctx)
	if err != nil {
		return
	}

	llama.MemoryClear(mem, true)
}

// NewSampler constructs a sampler chain from the specified parameters.
func (e *LlamaEngine) NewSampler(params SamplerParams) Sampler {
	chain := llama.SamplerChainInit(llama.SamplerChainDefaultParams())

	if params.RecentN > 0 {
		llama.SamplerChainAdd(chain, llama.SamplerInitPenalties(params.RecentN, 1.0, 0, 0))
	}
	if params.TopK > 0 {
		llama.SamplerChainAdd(chain, llama.SamplerInitTopK(params.TopK))
	}
	if params.TopP > 0 {
		llama.SamplerChainAdd(chain, llama.SamplerInitTopP(params.TopP, 0))
	}
	if params.Temp > 0 {
		llama.SamplerChainAdd(chain, llama.SamplerInitTempExt(params.Temp, 0, 1.0))
	}

	llama.SamplerChainAdd(chain, llama.SamplerInitDist(llama.DefaultSeed))

	s := llamaSampler{
		chain: chain,
		vocab: e.vocab,
		lctx:  e.lctx,
		buf:   make([]byte, 256),
	}

	return &s
}

// =============================================================================

type llamaProjector struct {
	ctx mtmd.Context
}

func (p *llamaProjector) Close() {
	mtmd.Free(p.ctx)
}

// =============================================================================

type llamaSampler struct {
	chain llama.Sampler
	vocab llama.Vocab
	lctx  llama.Context
	buf   []byte
}

// Sample picks the next token from the most recent logits.
func (s *llamaSampler) Sample(pos int32) Token {
	return Token(llama.SamplerSample(s.chain, s.lctx, -1))
}

func (s *llamaSampler) Accept(token Token) {
	llama.SamplerAccept(s.chain, llama.Token(token))
}

func (s *llamaSampler) IsEOG(token Token) bool {
	return llama.VocabIsEOG(s.vocab, llama.Token(token))
}

func (s *llamaSampler) Piece(token Token) string {
	l := llama.TokenToPiece(s.vocab, llama.Token(token), s.buf, 0, true)
	return string(s.buf[:l])
}

func (s *llamaSampler) Close() {
	llama.SamplerFree(s.chain)
}
