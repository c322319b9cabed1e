package model

// Config represents model level configuration for the production engine.
//
// ModelFile: Location of the text model weights.
//
// Device: Specify a specific device. Leave empty for the system to pick.
//
// ContextWindow: Sets the context window for the inference context.
// Defaults to the engine's value when 0.
type Config struct {
	ModelFile     string
	Device        string
	ContextWindow uint32
}
