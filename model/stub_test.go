package model

import (
	"fmt"
)

// stubEngine scripts the engine boundary so the request pipeline can be
// tested without model weights.
type stubEngine struct {
	modelLoaded bool
	ctxReady    bool
	marker      string

	openErr     error
	tokenizeErr error
	evalErr     error
	decodeErr   error

	// decodeFailAt fails the nth Decode call (1 based). 0 never fails.
	decodeFailAt int

	// script is the sequence of tokens the sampler produces. Once it is
	// exhausted the sampler produces eog forever, unless repeat is set, in
	// which case it produces repeatTok without end.
	script    []Token
	eog       Token
	repeat    bool
	repeatTok Token

	chunkTokens int32

	opens       int
	projClosed  int
	cleared     int
	decodeCalls int
	samplers    []*stubSampler

	lastProjCfg ProjectorConfig
	lastText    InputText
	lastBitmaps []*Bitmap
	evalPos     []int32
	evalSeq     []int32
	decodePos   []int32
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		modelLoaded: true,
		ctxReady:    true,
		marker:      "<__image__>",
		chunkTokens: 8,
		eog:         99,
	}
}

func (e *stubEngine) ModelLoaded() bool {
	return e.modelLoaded
}

func (e *stubEngine) ContextReady() bool {
	return e.ctxReady
}

func (e *stubEngine) DefaultMarker() string {
	return e.marker
}

func (e *stubEngine) OpenProjector(path string, cfg ProjectorConfig) (Projector, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}

	e.opens++
	e.lastProjCfg = cfg

	return &stubProjector{eng: e}, nil
}

func (e *stubEngine) Tokenize(proj Projector, text InputText, bitmaps []*Bitmap) (*ChunkSeq, error) {
	if e.tokenizeErr != nil {
		return nil, e.tokenizeErr
	}

	e.lastText = text
	e.lastBitmaps = bitmaps

	return &ChunkSeq{Handle: "chunks", NTokens: e.chunkTokens}, nil
}

func (e *stubEngine) Evaluate(proj Projector, chunks *ChunkSeq, pos int32, seq int32) error {
	if e.evalErr != nil {
		return e.evalErr
	}

	e.evalPos = append(e.evalPos, pos)
	e.evalSeq = append(e.evalSeq, seq)

	return nil
}

func (e *stubEngine) Decode(token Token, pos int32) error {
	e.decodeCalls++

	if e.decodeErr != nil {
		return e.decodeErr
	}

	if e.decodeFailAt > 0 && e.decodeCalls >= e.decodeFailAt {
		return fmt.Errorf("scripted decode failure at call %d", e.decodeCalls)
	}

	e.decodePos = append(e.decodePos, pos)

	return nil
}

func (e *stubEngine) ClearMemory() {
	e.cleared++
}

func (e *stubEngine) NewSampler(params SamplerParams) Sampler {
	s := stubSampler{
		eng:    e,
		params: params,
	}

	e.samplers = append(e.samplers, &s)

	return &s
}

// =============================================================================

type stubProjector struct {
	eng *stubEngine
}

func (p *stubProjector) Close() {
	p.eng.projClosed++
}

// =============================================================================

type stubSampler struct {
	eng      *stubEngine
	params   SamplerParams
	next     int
	accepted []Token
	closed   bool
}

func (s *stubSampler) Sample(pos int32) Token {
	if s.next >= len(s.eng.script) {
		if s.eng.repeat {
			return s.eng.repeatTok
		}
		return s.eng.eog
	}

	token := s.eng.script[s.next]
	s.next++

	return token
}

func (s *stubSampler) Accept(token Token) {
	s.accepted = append(s.accepted, token)
}

func (s *stubSampler) IsEOG(token Token) bool {
	return token == s.eng.eog
}

func (s *stubSampler) Piece(token Token) string {
	return fmt.Sprintf("[%d]", token)
}

func (s *stubSampler) Close() {
	s.closed = true
}
