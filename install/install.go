// Package install provides functions for installing llama.cpp and for
// pulling model and projector files.
package install

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/hybridgroup/yzma/pkg/download"
)

const versionFile = "version.json"

type tag struct {
	TagName string `json:"tag_name"`
}

// Version provides information about what is installed and what is the
// latest version of llama.cpp available.
type Version struct {
	Latest  string
	Current string
}

// InstalledVersion retrieves the current version of llama.cpp installed.
func InstalledVersion(libPath string) (string, error) {
	versionInfoPath := filepath.Join(libPath, versionFile)

	d, err := os.ReadFile(versionInfoPath)
	if err != nil {
		return "unknown", fmt.Errorf("unable to read version info file: %w", err)
	}

	var tag tag
	if err := json.Unmarshal(d, &tag); err != nil {
		return "unknown", fmt.Errorf("unable to parse version info file: %w", err)
	}

	return tag.TagName, nil
}

// VersionInformation retrieves the current version of llama.cpp that is
// published on GitHub and the current installed version.
func VersionInformation(libPath string) (Version, error) {
	currentVersion, _ := InstalledVersion(libPath)

	clearGithubToken()

	version, err := download.LlamaLatestVersion()
	if err != nil {
		return Version{}, fmt.Errorf("unable to get latest version of llama.cpp: %w", err)
	}

	return Version{Latest: version, Current: currentVersion}, nil
}

// clearGithubToken removes GITHUB_TOKEN from the environment. The release
// download fails when this variable is set.
func clearGithubToken() {
	if os.Getenv("GITHUB_TOKEN") != "" {
		os.Unsetenv("GITHUB_TOKEN")
	}
}

// Libraries installs or upgrades to the latest version of llama.cpp at the
// specified libPath. The new version lands in a temp directory first so a
// failed download can't leave a half written install behind.
func Libraries(libPath string, processor download.Processor, allowUpgrade bool) (Version, error) {
	tempPath := filepath.Join(libPath, "temp")

	clearGithubToken()

	if err := download.InstallLibraries(tempPath, processor, allowUpgrade); err != nil {
		os.RemoveAll(tempPath)
		return Version{}, fmt.Errorf("unable to install llama.cpp: %w", err)
	}

	if err := swapTempForLib(libPath, tempPath); err != nil {
		os.RemoveAll(tempPath)
		return Version{}, fmt.Errorf("unable to swap temp for lib: %w", err)
	}

	return VersionInformation(libPath)
}

func swapTempForLib(libPath string, tempPath string) error {
	entries, err := os.ReadDir(libPath)
	if err != nil {
		return fmt.Errorf("unable to read libPath: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == "temp" {
			continue
		}

		os.Remove(filepath.Join(libPath, entry.Name()))
	}

	tempEntries, err := os.ReadDir(tempPath)
	if err != nil {
		return fmt.Errorf("unable to read temp: %w", err)
	}

	for _, entry := range tempEntries {
		src := filepath.Join(tempPath, entry.Name())
		dst := filepath.Join(libPath, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("unable to move %s: %w", entry.Name(), err)
		}
	}

	os.RemoveAll(tempPath)

	return nil
}

// =============================================================================

// Model installs the model at the specified URL to the specified path. The name
// of the file and a flag that indicates if an actual download occurred is
// returned.
func Model(modelURL string, modelPath string) (string, bool, error) {
	return ModelWithProgress(modelURL, modelPath, nil)
}

// ModelWithProgress installs the model at the specified URL to the specified
// path with progress tracking. The name of the file and a flag that indicates
// if an actual download occurred is returned.
func ModelWithProgress(modelURL string, modelPath string, progress ProgressFunc) (string, bool, error) {
	u, err := url.Parse(modelURL)
	if err != nil {
		return "", false, fmt.Errorf("unable to parse modelURL: %w", err)
	}

	file := filepath.Join(modelPath, path.Base(u.Path))

	// The downloader can check if we have the full file and if it's of the
	// correct size. If we are not given a progress function, we can't check
	// the file size and the existence of the file is all we can do not to
	// start a download.
	if progress == nil {
		if _, err := os.Stat(file); err == nil {
			return file, false, nil
		}
	}

	downloaded, err := pullFile(context.Background(), modelURL, modelPath, progress)
	if err != nil {
		return "", false, fmt.Errorf("unable to download model: %w", err)
	}

	return file, downloaded, nil
}

func pullFile(ctx context.Context, fileURL string, destPath string, progress ProgressFunc) (bool, error) {
	if err := os.MkdirAll(destPath, 0o755); err != nil {
		return false, fmt.Errorf("unable to create destination: %w", err)
	}

	return pull(ctx, fileURL, destPath, progress, SizeIntervalMIB100)
}
