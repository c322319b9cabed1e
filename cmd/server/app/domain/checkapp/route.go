package checkapp

import (
	"net/http"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build  string
	Log    *logger.Logger
	Bridge *glimpse.Glimpse
}

// Routes adds specific routes for this group. The health checks bypass the
// application middleware so probes stay out of the request metrics.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg)

	app.HandlerFuncNoMid(http.MethodGet, version, "/liveness", api.liveness)
	app.HandlerFuncNoMid(http.MethodGet, version, "/readiness", api.readiness)
}
