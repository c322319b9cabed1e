package glimpse

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glimpsehq/glimpse/model"
	"golang.org/x/sync/errgroup"
)

// fakeEngine is a minimal scripted engine for exercising the bridge
// boundary. The pipeline internals are covered in the model package; these
// tests care about request mapping, response shaping, and serialization.
type fakeEngine struct {
	openErr  error
	tokPanic bool
	script   []model.Token
	inFlight int32
	overlap  int32
}

func newFakeEngine(script ...model.Token) *fakeEngine {
	return &fakeEngine{
		script: script,
	}
}

func (e *fakeEngine) ModelLoaded() bool {
	return true
}

func (e *fakeEngine) ContextReady() bool {
	return true
}

func (e *fakeEngine) DefaultMarker() string {
	return "<__image__>"
}

func (e *fakeEngine) OpenProjector(path string, cfg model.ProjectorConfig) (model.Projector, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}

	return fakeProjector{}, nil
}

func (e *fakeEngine) Tokenize(proj model.Projector, text model.InputText, bitmaps []*model.Bitmap) (*model.ChunkSeq, error) {
	if e.tokPanic {
		panic("segmentation fault in encoder")
	}

	if !atomic.CompareAndSwapInt32(&e.inFlight, 0, 1) {
		atomic.AddInt32(&e.overlap, 1)
	}

	return &model.ChunkSeq{NTokens: 4}, nil
}

func (e *fakeEngine) Evaluate(proj model.Projector, chunks *model.ChunkSeq, pos int32, seq int32) error {
	return nil
}

func (e *fakeEngine) Decode(token model.Token, pos int32) error {
	return nil
}

func (e *fakeEngine) ClearMemory() {}

func (e *fakeEngine) NewSampler(params model.SamplerParams) model.Sampler {
	atomic.StoreInt32(&e.inFlight, 0)
	return &fakeSampler{script: e.script}
}

type fakeProjector struct{}

func (fakeProjector) Close() {}

type fakeSampler struct {
	script []model.Token
	next   int
}

func (s *fakeSampler) Sample(pos int32) model.Token {
	if s.next >= len(s.script) {
		return -1
	}

	token := s.script[s.next]
	s.next++

	return token
}

func (s *fakeSampler) Accept(token model.Token) {}

func (s *fakeSampler) IsEOG(token model.Token) bool {
	return token == -1
}

func (s *fakeSampler) Piece(token model.Token) string {
	return fmt.Sprintf("tok%d ", token)
}

func (s *fakeSampler) Close() {}

// =============================================================================

func initRequest() InitMultimodalRequest {
	return InitMultimodalRequest{
		ProjectorFile: "mmproj.gguf",
	}
}

func processRequest() ProcessImageRequest {
	return ProcessImageRequest{
		Image:  make([]byte, 2*2*3),
		Width:  2,
		Height: 2,
		Prompt: "describe this",
	}
}

func initBridge(t *testing.T, eng model.Engine) *Glimpse {
	t.Helper()

	g := NewWithEngine(eng)
	t.Cleanup(g.Unload)

	resp := g.InitMultimodal(context.Background(), initRequest())
	if !resp.Success {
		t.Fatalf("unable to init multimodal: %s", resp.Error)
	}

	return g
}

// =============================================================================

func Test_InitMultimodal(t *testing.T) {
	g := NewWithEngine(newFakeEngine())
	defer g.Unload()

	resp := g.InitMultimodal(context.Background(), initRequest())

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	if resp.Error != "" {
		t.Errorf("expected empty error on success, got %q", resp.Error)
	}
}

func Test_InitMultimodal_Failure(t *testing.T) {
	eng := newFakeEngine()
	eng.openErr = fmt.Errorf("no such file")

	g := NewWithEngine(eng)
	defer g.Unload()

	resp := g.InitMultimodal(context.Background(), initRequest())

	if resp.Success {
		t.Fatal("expected failure")
	}

	if resp.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func Test_ProcessImage(t *testing.T) {
	g := initBridge(t, newFakeEngine(10, 11))

	resp := g.ProcessImage(context.Background(), processRequest())

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	if resp.Result != "tok10 tok11 " {
		t.Errorf("unexpected result %q", resp.Result)
	}
}

func Test_ProcessImage_BeforeInit(t *testing.T) {
	g := NewWithEngine(newFakeEngine())
	defer g.Unload()

	resp := g.ProcessImage(context.Background(), processRequest())

	if resp.Success {
		t.Fatal("expected failure before init")
	}

	if resp.Result != "" {
		t.Errorf("expected no result, got %q", resp.Result)
	}
}

func Test_ProcessImage_DataSize(t *testing.T) {
	g := initBridge(t, newFakeEngine())

	// A declared size larger than the payload is rejected.
	req := processRequest()
	req.DataSize = len(req.Image) + 1

	resp := g.ProcessImage(context.Background(), req)
	if resp.Success {
		t.Fatal("expected failure for oversized data size")
	}

	// A smaller declared size truncates, which then fails the dimension
	// check inside the pipeline.
	req = processRequest()
	req.DataSize = len(req.Image) - 3

	resp = g.ProcessImage(context.Background(), req)
	if resp.Success {
		t.Fatal("expected failure for truncated image data")
	}

	// A matching declared size passes through.
	req = processRequest()
	req.DataSize = len(req.Image)

	resp = g.ProcessImage(context.Background(), req)
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
}

func Test_ProcessImage_PanicRecovery(t *testing.T) {
	eng := newFakeEngine()
	eng.tokPanic = true

	g := initBridge(t, eng)

	resp := g.ProcessImage(context.Background(), processRequest())

	if resp.Success {
		t.Fatal("expected failure when the engine faults")
	}

	if !strings.Contains(resp.Error, "internal error") {
		t.Errorf("expected an internal error message, got %q", resp.Error)
	}

	// The bridge must still serve requests after the fault.
	eng.tokPanic = false

	resp = g.ProcessImage(context.Background(), processRequest())
	if !resp.Success {
		t.Fatalf("expected recovery on the next request, got error %q", resp.Error)
	}
}

func Test_ProcessImage_Serialized(t *testing.T) {
	eng := newFakeEngine(1, 2, 3)
	g := initBridge(t, eng)

	var wg errgroup.Group

	for range 8 {
		wg.Go(func() error {
			resp := g.ProcessImage(context.Background(), processRequest())
			if !resp.Success {
				return fmt.Errorf("request failed: %s", resp.Error)
			}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		t.Fatal(err)
	}

	if n := atomic.LoadInt32(&eng.overlap); n != 0 {
		t.Fatalf("expected no overlapping requests, detected %d", n)
	}
}

func Test_ProcessImage_ContextExpired(t *testing.T) {
	g := initBridge(t, newFakeEngine())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := g.ProcessImage(ctx, processRequest())

	if resp.Success {
		t.Fatal("expected failure for an expired context")
	}
}

func Test_Unload(t *testing.T) {
	g := NewWithEngine(newFakeEngine())
	g.Unload()

	resp := g.ProcessImage(context.Background(), processRequest())
	if resp.Success {
		t.Fatal("expected failure after unload")
	}

	// A second unload is a no-op.
	g.Unload()
}
