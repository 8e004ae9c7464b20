package metrics

import (
	"context"
	"strings"
)

const recallTokenCount = 5

// ContextRecall estimates whether the retrieved contexts contain the
// ground truth: the first few ground-truth tokens are checked for
// literal presence in the joined contexts. Empty contexts score 0.0.
func (e *Engine) ContextRecall(_ context.Context, groundTruth string, contexts []string) float64 {
	if len(contexts) == 0 {
		return 0.0
	}

	tokens := strings.Fields(strings.ToLower(groundTruth))
	if len(tokens) > recallTokenCount {
		tokens = tokens[:recallTokenCount]
	}
	if len(tokens) == 0 {
		return 0.0
	}

	joined := strings.ToLower(strings.Join(contexts, " "))

	found := 0
	for _, tok := range tokens {
		if strings.Contains(joined, tok) {
			found++
		}
	}
	return clamp01(float64(found) / float64(len(tokens)))
}
