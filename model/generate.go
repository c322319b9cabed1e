package model

import (
	"context"
	"fmt"
	"strings"
)

const (
	// seqID is the fixed sequence id every request decodes on. The bridge
	// holds a single sequence; there is no multi-sequence scheduling.
	seqID = 0

	// maxGenerate bounds the decode loop when the model never emits an
	// end-of-sequence token.
	maxGenerate = 1024
)

// stopReason records why the decode loop ended.
type stopReason int

const (
	stopEOS stopReason = iota + 1
	stopBound
	stopCanceled
)

// generate runs the token-by-token decode loop: sample, check for
// end-of-sequence, append the token's text, feed the token back into the
// sampler history, then submit it to the engine and advance the cursor.
// Hitting the iteration bound is normal termination with the text produced
// so far. A decode failure aborts the request; nothing accumulated is
// returned.
func (m *Model) generate(ctx context.Context, sampler Sampler) (string, stopReason, error) {
	var text strings.Builder

	for range maxGenerate {
		select {
		case <-ctx.Done():
			return "", stopCanceled, ctx.Err()
		default:
		}

		token := sampler.Sample(m.pos)

		if sampler.IsEOG(token) {
			return text.String(), stopEOS, nil
		}

		text.WriteString(sampler.Piece(token))
		sampler.Accept(token)

		if err := m.eng.Decode(token, m.pos); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		m.advance(1)
	}

	return text.String(), stopBound, nil
}
