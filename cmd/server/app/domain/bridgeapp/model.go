package bridgeapp

import (
	"encoding/json"

	"github.com/glimpsehq/glimpse"
)

// The bridge reports failures inside the response body with a success flag,
// so both outcomes travel as a 200 with a well formed document.

type initResponse struct {
	glimpse.InitMultimodalResponse
}

// Encode implements the encoder interface.
func (r initResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r.InitMultimodalResponse)
	return data, "application/json", err
}

type processResponse struct {
	glimpse.ProcessImageResponse
}

// Encode implements the encoder interface.
func (r processResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r.ProcessImageResponse)
	return data, "application/json", err
}
