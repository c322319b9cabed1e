package model

// Fixed sampling parameters used for image conditioned generation.
const (
	defTemp    = 0.7
	defTopK    = 40
	defTopP    = 0.9
	defRecentN = 64
)

// SamplerParams represents the sample options used when constructing
// sampler state.
//
// Temp controls the randomness of the output by rescaling the probability
// distribution of possible next tokens.
//
// TopK limits the pool of possible next tokens to the K most probable
// tokens after temperature scaling.
//
// TopP, also known as nucleus sampling, selects the minimum number of most
// probable tokens whose cumulative probability exceeds P.
//
// RecentN is the number of recently accepted tokens the sampler keeps in
// its history for repetition aware sampling.
type SamplerParams struct {
	Temp    float32
	TopK    int32
	TopP    float32
	RecentN int32
}

func defaultSamplerParams() SamplerParams {
	return SamplerParams{
		Temp:    defTemp,
		TopK:    defTopK,
		TopP:    defTopP,
		RecentN: defRecentN,
	}
}
