// Package mux provides support to bind domain level routes
// to the application mux.
package mux

import (
	"net/http"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/app/domain/bridgeapp"
	"github.com/glimpsehq/glimpse/cmd/server/app/domain/checkapp"
	"github.com/glimpsehq/glimpse/cmd/server/app/sdk/mid"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
	"go.opentelemetry.io/otel/trace"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build  string
	Log    *logger.Logger
	Tracer trace.Tracer
	Bridge *glimpse.Glimpse
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config) http.Handler {
	app := web.NewApp(
		cfg.Log.Info,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Metrics(),
		mid.Errors(cfg.Log),
		mid.Panics(),
	)

	checkapp.Routes(app, checkapp.Config{
		Build:  cfg.Build,
		Log:    cfg.Log,
		Bridge: cfg.Bridge,
	})

	bridgeapp.Routes(app, bridgeapp.Config{
		Log:    cfg.Log,
		Bridge: cfg.Bridge,
	})

	return app
}
