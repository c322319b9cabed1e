// Package libs provides the libs command code.
package libs

import (
	"errors"
	"fmt"

	"github.com/glimpsehq/glimpse"
	"github.com/glimpsehq/glimpse/install"
)

// ErrInvalidArguments indicates the command was called incorrectly.
var ErrInvalidArguments = errors.New("invalid arguments")

// Run installs or upgrades the llama.cpp libraries and validates the
// installation by loading them.
func Run(args []string) error {
	if len(args) != 0 {
		return ErrInvalidArguments
	}

	libPath := install.LibsDir("")

	processor, err := install.Processor("")
	if err != nil {
		return fmt.Errorf("libs: unable to determine processor: %w", err)
	}

	fmt.Printf("Installing llama.cpp [%s] into %s\n", processor, libPath)

	version, err := install.Libraries(libPath, processor, true)
	if err != nil {
		return fmt.Errorf("libs: unable to install llama.cpp: %w", err)
	}

	fmt.Printf("Installed llama.cpp %s\n", version.Current)

	if err := glimpse.Init(libPath, glimpse.LogSilent); err != nil {
		return fmt.Errorf("libs: installation invalid: %w", err)
	}

	return nil
}
