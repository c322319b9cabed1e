// Package metrics constructs the metrics the application will track.
package metrics

import (
	"expvar"
	"runtime"
	"time"
)

var m metrics

type metrics struct {
	goroutines       *expvar.Int
	requests         *expvar.Int
	errors           *expvar.Int
	panics           *expvar.Int
	projFileLoadTime *avgMetric
	imagePrefillTime *avgMetric
	generationTime   *avgMetric
	processImage     *usage
}

func init() {
	m = metrics{
		goroutines:       expvar.NewInt("service_goroutines"),
		requests:         expvar.NewInt("service_requests"),
		errors:           expvar.NewInt("service_errors"),
		panics:           expvar.NewInt("service_panics"),
		projFileLoadTime: newAvgMetric("projector_load"),
		imagePrefillTime: newAvgMetric("image_prefill"),
		generationTime:   newAvgMetric("generation"),
		processImage:     newUsage("usage_processimage"),
	}
}

// AddGoroutines refreshes the goroutine metric.
func AddGoroutines() int64 {
	g := int64(runtime.NumGoroutine())
	m.goroutines.Set(g)
	return g
}

// AddRequests increments the request metric by 1.
func AddRequests() int64 {
	m.requests.Add(1)
	return m.requests.Value()
}

// AddErrors increments the errors metric by 1.
func AddErrors() int64 {
	m.errors.Add(1)
	return m.errors.Value()
}

// AddPanics increments the panics metric by 1.
func AddPanics() int64 {
	m.panics.Add(1)
	return m.panics.Value()
}

// AddProjFileLoadTime captures the specified duration for loading a projector file.
func AddProjFileLoadTime(duration time.Duration) {
	m.projFileLoadTime.add(duration.Seconds())
}

// AddImagePrefillTime captures the specified duration for evaluating image chunks.
func AddImagePrefillTime(duration time.Duration) {
	m.imagePrefillTime.add(duration.Seconds())
}

// AddGenerationTime captures the specified duration for the decode loop.
func AddGenerationTime(duration time.Duration) {
	m.generationTime.add(duration.Seconds())
}

// AddProcessImageUsage captures the specified usage values for process-image.
func AddProcessImageUsage(promptTokens, outputTokens int, tokensPerSecond float64) {
	data := usageData{
		PromptTokens:    promptTokens,
		OutputTokens:    outputTokens,
		TotalTokens:     promptTokens + outputTokens,
		TokensPerSecond: tokensPerSecond,
	}

	m.processImage.add(data)
}
