package mid

import (
	"context"
	"net/http"

	"github.com/glimpsehq/glimpse/cmd/server/app/sdk/errs"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/logger"
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)

			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			appErr := errs.GetError(err)

			log.Error(ctx, "errors message", "ERROR", appErr.Message, "FILE", appErr.FileName, "FUNC", appErr.FuncName)

			if appErr.Code == errs.InternalOnlyLog {
				appErr = errs.Errorf(errs.Internal, "internal error")
			}

			return appErr
		}

		return h
	}

	return m
}
