package metrics

import (
	"context"
	"fmt"
)

const precisionTruncateLen = 500

// ContextPrecision scores how early the relevant contexts appear: each
// of the first k contexts is judged for relevance to the question, and
// relevant positions contribute 1/position. No relevant context in the
// top k scores 0.0.
func (e *Engine) ContextPrecision(ctx context.Context, question string, contexts []string) float64 {
	k := e.precisionK
	if k <= 0 {
		k = defaultPrecisionK
	}
	if len(contexts) < k {
		k = len(contexts)
	}
	if k == 0 {
		return 0.0
	}

	var sum float64
	for i := 0; i < k; i++ {
		prompt := fmt.Sprintf(
			"Question: %s\n\nContext: %s\n\nIs this context relevant to answering the question? Answer only YES or NO.",
			question, truncate(contexts[i], precisionTruncateLen))
		if isYes(e.ask(ctx, prompt)) {
			sum += 1.0 / float64(i+1)
		}
	}

	denom := e.precisionK
	if denom <= 0 {
		denom = defaultPrecisionK
	}
	return clamp01(sum / float64(denom))
}
