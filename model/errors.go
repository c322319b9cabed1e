package model

import "errors"

// Set of failure conditions surfaced by the bridge. Each request maps to
// exactly one of these so callers can report a precise error instead of
// crashing the host process.
var (
	ErrModelNotLoaded = errors.New("text model not loaded")
	ErrNotInitialized = errors.New("multimodal context not initialized")
	ErrInvalidImage   = errors.New("invalid image data or dimensions")
	ErrImageSize      = errors.New("image data size does not match dimensions")
	ErrInitMultimodal = errors.New("unable to initialize multimodal context")
	ErrTokenize       = errors.New("unable to tokenize input with image")
	ErrEvaluate       = errors.New("unable to evaluate chunks")
	ErrDecode         = errors.New("unable to decode token")
)
