package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/hashicorp/go-getter"
)

// SizeInterval are pre-calculated size interval values.
const (
	SizeIntervalMIB    = 1024 * 1024
	SizeIntervalMIB10  = SizeIntervalMIB * 10
	SizeIntervalMIB100 = SizeIntervalMIB * 100
)

// ProgressFunc provides feedback on the progress of a file download.
type ProgressFunc func(src string, currentSize int64, totalSize int64, mibPerSec float64, complete bool)

// pull downloads a single file from a url to a specified destination. It
// reports whether any bytes actually moved, since go-getter skips files that
// are already present and complete.
func pull(ctx context.Context, src string, dest string, progress ProgressFunc, sizeInterval int64) (bool, error) {
	if !hasNetwork() {
		return false, errors.New("no network available")
	}

	var pr progressReader

	if progress != nil {
		pr = progressReader{
			progress:     progress,
			sizeInterval: sizeInterval,
		}
	}

	var getters map[string]getter.Getter

	// Gated repositories need the token on the request.
	if token := os.Getenv("GLIMPSE_HF_TOKEN"); token != "" {
		httpGetter := &getter.HttpGetter{
			Header: map[string][]string{
				"Authorization": {"Bearer " + token},
			},
		}

		getters = map[string]getter.Getter{
			"https": httpGetter,
			"http":  httpGetter,
		}
	}

	client := getter.Client{
		Ctx:              ctx,
		Src:              src,
		Dst:              dest,
		Mode:             getter.ClientModeAny,
		ProgressListener: getter.ProgressTracker(&pr),
		Getters:          getters,
	}

	if err := client.Get(); err != nil {
		return false, fmt.Errorf("unable to download file: %w", err)
	}

	if pr.currentSize == 0 {
		return false, nil
	}

	return true, nil
}

// =============================================================================

// progressReader reports details about a download as it happens.
type progressReader struct {
	src          string
	currentSize  int64
	totalSize    int64
	lastReported int64
	startTime    time.Time
	reader       io.ReadCloser
	progress     ProgressFunc
	sizeInterval int64
}

// TrackProgress is called once at the beginning to setup the download.
func (pr *progressReader) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	pr.src = src
	pr.currentSize = currentSize
	pr.totalSize = totalSize
	pr.startTime = time.Now()
	pr.reader = stream

	return pr
}

// Read performs a partial read of the download which gives us the
// ability to get stats.
func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.currentSize += int64(n)

	if pr.progress != nil && pr.currentSize-pr.lastReported >= pr.sizeInterval {
		pr.lastReported = pr.currentSize
		pr.progress(pr.src, pr.currentSize, pr.totalSize, pr.mibPerSec(), false)
	}

	return n, err
}

// Close closes the reader once the download is complete.
func (pr *progressReader) Close() error {
	if pr.progress != nil {
		pr.progress(pr.src, pr.currentSize, pr.totalSize, pr.mibPerSec(), true)
	}

	return pr.reader.Close()
}

func (pr *progressReader) mibPerSec() float64 {
	elapsed := time.Since(pr.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}

	return float64(pr.currentSize) / SizeIntervalMIB / elapsed
}

// =============================================================================

func hasNetwork() bool {
	conn, err := net.DialTimeout("tcp", "8.8.8.8:53", 3*time.Second)
	if err != nil {
		return false
	}

	conn.Close()

	return true
}
