package bridgeapp

import (
	"net/http"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *logger.Logger
	Bridge *glimpse.Glimpse
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg)

	app.HandlerFunc(http.MethodPost, version, "/init-multimodal", api.initMultimodal)
	app.HandlerFunc(http.MethodPost, version, "/process-image", api.processImage)
}
