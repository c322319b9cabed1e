// Package pull provides the pull command code.
package pull

import (
	"fmt"

	"github.com/glimpsehq/glimpse/install"
)

// Run downloads a model file and an optional mmproj file into the models
// directory.
func Run(args []string) error {
	modelPath := install.ModelsDir("")

	progress := func(src string, currentSize int64, totalSize int64, mibPerSec float64, complete bool) {
		switch complete {
		case true:
			fmt.Printf("\rPulled %s: %d MiB\n", src, currentSize/install.SizeIntervalMIB)

		default:
			fmt.Printf("\rPulling %s... %d MiB of %d MiB (%.2f MiB/s)", src, currentSize/install.SizeIntervalMIB, totalSize/install.SizeIntervalMIB, mibPerSec)
		}
	}

	for _, fileURL := range args {
		file, downloaded, err := install.ModelWithProgress(fileURL, modelPath, progress)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}

		if !downloaded {
			fmt.Printf("Already have %s\n", file)
			continue
		}

		fmt.Printf("Saved %s\n", file)
	}

	return nil
}
