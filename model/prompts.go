package model

import "strings"

// ensureMarker guarantees the prompt carries the image marker so the
// tokenizer can anchor the image chunk. When the marker is missing it is
// appended space separated, which changes the prompt the engine sees.
func ensureMarker(prompt string, marker string) string {
	if strings.Contains(prompt, marker) {
		return prompt
	}

	return prompt + " " + marker
}

// newInputText assembles the tokenizer input for an image conditioned
// prompt. Special token handling is always on for this pipeline.
func newInputText(prompt string) InputText {
	return InputText{
		Text:         prompt,
		AddSpecial:   true,
		ParseSpecial: true,
	}
}
