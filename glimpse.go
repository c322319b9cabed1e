// Package glimpse provides a request driven bridge between a host
// application and a multimodal (image+text) autoregressive inference engine
// running on llamacpp via yzma.
package glimpse

import (
	"fmt"
	"sync"

	"github.com/glimpsehq/glimpse/model"
	"github.com/hybridgroup/yzma/pkg/llama"
	"github.com/hybridgroup/yzma/pkg/mtmd"
)

// LogLevel represents the logging level.
type LogLevel int

// Set of logging levels supported by llamacpp.
const (
	LogSilent LogLevel = iota + 1
	LogNormal
)

var (
	libraryLocation string
	initOnce        sync.Once
	initErr         error
)

// Init initializes the Glimpse backend support by loading the llamacpp and
// mtmd shared libraries.
func Init(libPath string, logLevel LogLevel) error {
	initOnce.Do(func() {
		if err := llama.Load(libPath); err != nil {
			initErr = fmt.Errorf("unable to load library: %w", err)
			return
		}

		if err := mtmd.Load(libPath); err != nil {
			initErr = fmt.Errorf("unable to load mtmd library: %w", err)
			return
		}

		libraryLocation = libPath

		llama.Init()

		switch logLevel {
		case LogSilent:
			llama.LogSet(llama.LogSilent())
			mtmd.LogSet(llama.LogSilent())
		default:
			llama.LogSet(llama.LogNormal)
			mtmd.LogSet(llama.LogNormal)
		}
	})

	return initErr
}

// Glimpse is the bridge between a host application and the inference engine.
// It owns the single multimodal context, the single inference context, and
// the sampler state, and it serializes every request so no two operations
// are ever in flight at the same time.
type Glimpse struct {
	models       chan *model.Model
	shutdown     sync.Mutex
	shutdownFlag bool
	active       sync.WaitGroup
	unload       func()
}

// New loads the text model, constructs the inference context, and returns
// the bridge ready for InitMultimodal and ProcessImage requests.
func New(cfg model.Config) (*Glimpse, error) {
	if libraryLocation == "" {
		return nil, fmt.Errorf("the Init() function has not been called")
	}

	eng, err := model.NewLlamaEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to construct engine: %w", err)
	}

	mdl := model.NewModel(eng)

	g := newGlimpse(mdl)
	g.unload = func() {
		mdl.Close()
		eng.Unload()
	}

	return g, nil
}

// NewWithEngine constructs the bridge over a caller supplied engine. This
// exists so the full request pipeline can run against a stub engine without
// loading model weights.
func NewWithEngine(eng model.Engine) *Glimpse {
	mdl := model.NewModel(eng)

	g := newGlimpse(mdl)
	g.unload = mdl.Close

	return g
}

func newGlimpse(mdl *model.Model) *Glimpse {
	// Capacity 1: there is exactly one bridge context and acquiring it
	// grants exclusive use for the duration of a request.
	models := make(chan *model.Model, 1)
	models <- mdl

	return &Glimpse{
		models: models,
	}
}

// Unload tears down the bridge, releasing the multimodal context and the
// engine. It waits for the in-flight request, if any, to complete. You
// should call this only when you are completely done using the bridge.
func (g *Glimpse) Unload() {
	g.shutdown.Lock()
	if g.shutdownFlag {
		g.shutdown.Unlock()
		return
	}
	g.shutdownFlag = true
	g.shutdown.Unlock()

	g.active.Wait()

	close(g.models)
	for range g.models {
	}

	if g.unload != nil {
		g.unload()
	}
}
