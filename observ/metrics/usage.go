package metrics

type usageData struct {
	PromptTokens    int
	OutputTokens    int
	TotalTokens     int
	TokensPerSecond float64
}

type usage struct {
	promptTokens    *avgMetric
	outputTokens    *avgMetric
	totalTokens     *avgMetric
	tokensPerSecond *avgMetric
}

func newUsage(name string) *usage {
	return &usage{
		promptTokens:    newAvgMetric(name + "_tkns_prompt"),
		outputTokens:    newAvgMetric(name + "_tkns_output"),
		totalTokens:     newAvgMetric(name + "_tkns_total"),
		tokensPerSecond: newAvgMetric(name + "_tkns_persecond"),
	}
}

func (u *usage) add(data usageData) {
	u.promptTokens.add(float64(data.PromptTokens))
	u.outputTokens.add(float64(data.OutputTokens))
	u.totalTokens.add(float64(data.TotalTokens))
	u.tokensPerSecond.add(float64(data.TokensPerSecond))
}
