package bridgeapp_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/app/sdk/mux"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/model"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace/noop"
)

func startServer(t *testing.T, eng model.Engine) (*httptest.Server, *glimpse.Glimpse) {
	t.Helper()

	log := logger.New(os.Stdout, logger.LevelError, "TEST", nil)

	bridge := glimpse.NewWithEngine(eng)
	t.Cleanup(bridge.Unload)

	webAPI := mux.WebAPI(mux.Config{
		Build:  "test",
		Log:    log,
		Tracer: noop.NewTracerProvider().Tracer("test"),
		Bridge: bridge,
	})

	srv := httptest.NewServer(webAPI)
	t.Cleanup(srv.Close)

	return srv, bridge
}

func post[T any](t *testing.T, url string, body any) (int, T) {
	t.Helper()

	d, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("unable to marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(d))
	if err != nil {
		t.Fatalf("unable to perform request: %v", err)
	}
	defer resp.Body.Close()

	var got T
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("unable to decode response: %v", err)
	}

	return resp.StatusCode, got
}

func initMultimodal(t *testing.T, srv *httptest.Server) {
	t.Helper()

	status, resp := post[glimpse.InitMultimodalResponse](t, srv.URL+"/v1/init-multimodal", glimpse.InitMultimodalRequest{
		ProjectorFile: "mmproj.gguf",
	})

	if status != http.StatusOK || !resp.Success {
		t.Fatalf("unable to init multimodal: status %d error %q", status, resp.Error)
	}
}

// =============================================================================

func Test_InitMultimodal(t *testing.T) {
	srv, _ := startServer(t, newTestEngine(1, 2))

	status, got := post[glimpse.InitMultimodalResponse](t, srv.URL+"/v1/init-multimodal", glimpse.InitMultimodalRequest{
		ProjectorFile: "mmproj.gguf",
		Threads:       4,
	})

	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}

	want := glimpse.InitMultimodalResponse{
		Success: true,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected response (-want +got):\n%s", diff)
	}
}

func Test_InitMultimodal_MissingField(t *testing.T) {
	srv, _ := startServer(t, newTestEngine())

	status, _ := post[map[string]any](t, srv.URL+"/v1/init-multimodal", map[string]any{})

	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
}

func Test_ProcessImage(t *testing.T) {
	srv, _ := startServer(t, newTestEngine(1, 2))
	initMultimodal(t, srv)

	status, got := post[glimpse.ProcessImageResponse](t, srv.URL+"/v1/process-image", glimpse.ProcessImageRequest{
		Image:  make([]byte, 2*2*3),
		Width:  2,
		Height: 2,
		Prompt: "describe this",
	})

	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}

	want := glimpse.ProcessImageResponse{
		Success: true,
		Result:  "<1><2>",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected response (-want +got):\n%s", diff)
	}
}

func Test_ProcessImage_Failure(t *testing.T) {
	srv, _ := startServer(t, newTestEngine())
	initMultimodal(t, srv)

	// One byte short of the declared dimensions.
	status, got := post[glimpse.ProcessImageResponse](t, srv.URL+"/v1/process-image", glimpse.ProcessImageRequest{
		Image:  make([]byte, 2*2*3-1),
		Width:  2,
		Height: 2,
		Prompt: "describe this",
	})

	if status != http.StatusOK {
		t.Fatalf("failures travel inside the body, expected status 200, got %d", status)
	}

	if got.Success {
		t.Fatal("expected failure for a short image buffer")
	}

	if got.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func Test_ProcessImage_MissingImage(t *testing.T) {
	srv, _ := startServer(t, newTestEngine())
	initMultimodal(t, srv)

	status, _ := post[map[string]any](t, srv.URL+"/v1/process-image", map[string]any{
		"prompt": "describe this",
	})

	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
}

func Test_Liveness(t *testing.T) {
	srv, _ := startServer(t, newTestEngine())

	resp, err := http.Get(srv.URL + "/v1/liveness")
	if err != nil {
		t.Fatalf("unable to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

// =============================================================================

// testEngine scripts the engine boundary so the web api can be exercised
// without model weights.
type testEngine struct {
	script []model.Token
}

func newTestEngine(script ...model.Token) *testEngine {
	return &testEngine{script: script}
}

func (e *testEngine) ModelLoaded() bool     { return true }
func (e *testEngine) ContextReady() bool    { return true }
func (e *testEngine) DefaultMarker() string { return "<__image__>" }

func (e *testEngine) OpenProjector(path string, cfg model.ProjectorConfig) (model.Projector, error) {
	return testProjector{}, nil
}

func (e *testEngine) Tokenize(proj model.Projector, text model.InputText, bitmaps []*model.Bitmap) (*model.ChunkSeq, error) {
	return &model.ChunkSeq{NTokens: 4}, nil
}

func (e *testEngine) Evaluate(proj model.Projector, chunks *model.ChunkSeq, pos int32, seq int32) error {
	return nil
}

func (e *testEngine) Decode(token model.Token, pos int32) error { return nil }
func (e *testEngine) ClearMemory()                              {}

func (e *testEngine) NewSampler(params model.SamplerParams) model.Sampler {
	return &testSampler{script: e.script}
}

type testProjector struct{}

func (testProjector) Close() {}

type testSampler struct {
	script []model.Token
	next   int
}

func (s *testSampler) Sample(pos int32) model.Token {
	if s.next >= len(s.script) {
		return -1
	}

	token := s.script[s.next]
	s.next++

	return token
}

func (s *testSampler) Accept(token model.Token)     {}
func (s *testSampler) IsEOG(token model.Token) bool { return token == -1 }
func (s *testSampler) Piece(token model.Token) string {
	return fmt.Sprintf("<%d>", token)
}
func (s *testSampler) Close() {}
