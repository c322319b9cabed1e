// Package bridgeapp provides the multimodal bridge api endpoints.
package bridgeapp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/app/sdk/errs"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
	"github.com/glimpsehq/glimpse/observ/otel"
)

type app struct {
	log    *logger.Logger
	bridge *glimpse.Glimpse
}

func newApp(cfg Config) *app {
	return &app{
		log:    cfg.Log,
		bridge: cfg.Bridge,
	}
}

func (a *app) initMultimodal(ctx context.Context, r *http.Request) web.Encoder {
	var req glimpse.InitMultimodalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if req.ProjectorFile == "" {
		return errs.Errorf(errs.InvalidArgument, "missing mmproj_path field")
	}

	a.log.Info(ctx, "init-multimodal", "mmproj", req.ProjectorFile, "use-gpu", req.UseGPU, "threads", req.Threads)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	ctx, span := otel.AddSpan(ctx, "bridgeapp.initmultimodal")
	defer span.End()

	resp := a.bridge.InitMultimodal(ctx, req)

	return initResponse{resp}
}

func (a *app) processImage(ctx context.Context, r *http.Request) web.Encoder {
	var req glimpse.ProcessImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if len(req.Image) == 0 {
		return errs.Errorf(errs.InvalidArgument, "missing image_data field")
	}

	a.log.Info(ctx, "process-image", "width", req.Width, "height", req.Height, "bytes", len(req.Image), "use-cache", req.UseCache)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	ctx, span := otel.AddSpan(ctx, "bridgeapp.processimage")
	defer span.End()

	resp := a.bridge.ProcessImage(ctx, req)

	return processResponse{resp}
}
