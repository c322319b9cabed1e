package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hybridgroup/yzma/pkg/download"
)

var (
	basePath  = ".glimpse"
	libsPath  = "libraries"
	modelPath = "models"
)

// LibsDir returns the default location for the libraries folder. It will
// check the GLIMPSE_LIB_PATH env var first and then default to the home
// directory if one can be identified. Last resort it will choose the current
// directory.
func LibsDir(override string) string {
	if override != "" {
		return override
	}

	if v := os.Getenv("GLIMPSE_LIB_PATH"); v != "" {
		return v
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Sprintf("./%s/%s", basePath, libsPath)
	}

	return filepath.Join(homeDir, basePath, libsPath)
}

// ModelsDir returns the default location for the models folder. It will
// check the GLIMPSE_MODELS env var first and then default to the home
// directory if one can be identified. Last resort it will choose the current
// directory.
func ModelsDir(override string) string {
	if override != "" {
		return override
	}

	if v := os.Getenv("GLIMPSE_MODELS"); v != "" {
		return v
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Sprintf("./%s/%s", basePath, modelPath)
	}

	return filepath.Join(homeDir, basePath, modelPath)
}

// Processor will check the GLIMPSE_PROCESSOR env var first and check its
// value against the proper set of processor values (cpu, cuda, metal,
// vulkan). If that variable is not set, then cpu is used as the default.
func Processor(override string) (download.Processor, error) {
	if override != "" {
		return download.ParseProcessor(override)
	}

	if v := os.Getenv("GLIMPSE_PROCESSOR"); v != "" {
		return download.ParseProcessor(v)
	}

	return download.CPU, nil
}
