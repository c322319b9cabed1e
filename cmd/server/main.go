// This program provides the glimpse bridge as a standalone web service.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/app/sdk/mux"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/install"
	"github.com/glimpsehq/glimpse/model"
	"github.com/glimpsehq/glimpse/observ/otel"
)

var build = "develop"

func main() {
	var log *logger.Logger

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "glimpse", traceIDFn, events)

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
			DebugHost       string        `conf:"default:0.0.0.0:8090"`
		}
		Libs struct {
			Path     string `conf:"default:libs"`
			LlamaLog int    `conf:"default:1"`
		}
		Model struct {
			File          string `conf:"required"`
			ProjFile      string
			Device        string
			ContextWindow uint `conf:"default:4096"`
			UseGPU        bool `conf:"default:false"`
			Threads       int  `conf:"default:1"`
			ImageMarker   string
		}
		Tempo struct {
			Host        string  `conf:"default:localhost:4317"`
			ServiceName string  `conf:"default:glimpse"`
			Probability float64 `conf:"default:0.05"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "Multimodal inference bridge",
		},
	}

	const prefix = "GLIMPSE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Build)
	defer log.Info(ctx, "shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Info(ctx, "startup", "config", out)

	expvar.NewString("build").Set(cfg.Build)

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, tracer, err := otel.InitTracing(otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer traceProvider.Shutdown(context.Background())

	// -------------------------------------------------------------------------
	// Initialize Inference Support

	log.Info(ctx, "startup", "status", "initializing llama.cpp", "lib-path", cfg.Libs.Path)

	if version, err := install.InstalledVersion(cfg.Libs.Path); err == nil {
		log.Info(ctx, "startup", "llama-version", version)
	}

	logLevel := glimpse.LogSilent
	if cfg.Libs.LlamaLog > 1 {
		logLevel = glimpse.LogNormal
	}

	if err := glimpse.Init(cfg.Libs.Path, logLevel); err != nil {
		return fmt.Errorf("initializing llama.cpp: %w", err)
	}

	log.Info(ctx, "startup", "status", "loading model", "model-file", cfg.Model.File)

	bridge, err := glimpse.New(model.Config{
		ModelFile:     cfg.Model.File,
		Device:        cfg.Model.Device,
		ContextWindow: uint32(cfg.Model.ContextWindow),
	})
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	defer func() {
		log.Info(ctx, "shutdown", "status", "unloading model")
		bridge.Unload()
	}()

	if cfg.Model.ProjFile != "" {
		log.Info(ctx, "startup", "status", "initializing multimodal", "proj-file", cfg.Model.ProjFile)

		resp := bridge.InitMultimodal(ctx, glimpse.InitMultimodalRequest{
			ProjectorFile: cfg.Model.ProjFile,
			UseGPU:        cfg.Model.UseGPU,
			Threads:       cfg.Model.Threads,
			ImageMarker:   cfg.Model.ImageMarker,
		})
		if !resp.Success {
			return fmt.Errorf("initializing multimodal: %s", resp.Error)
		}
	}

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug router started", "host", cfg.Web.DebugHost)

		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing api support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	webAPI := mux.WebAPI(mux.Config{
		Build:  cfg.Build,
		Log:    log,
		Tracer: tracer,
		Bridge: bridge,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)

		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// debugMux registers all the debug routes from the standard library into a
// new mux bypassing the use of the DefaultServeMux.
func debugMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}
