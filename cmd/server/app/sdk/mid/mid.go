// Package mid provides app level middleware support.
package mid

import (
	"github.com/glimpsehq/glimpse/cmd/server/foundation/web"
)

// checkIsError tests if the Encoder has an error inside of it.
func checkIsError(e web.Encoder) error {
	err, isError := e.(error)
	if isError {
		return err
	}

	return nil
}
