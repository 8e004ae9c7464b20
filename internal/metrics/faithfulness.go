package metrics

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const contextTruncateLen = 3000

var claimNumberRe = regexp.MustCompile(`^\d+\.\s*`)

// Faithfulness measures the fraction of answer claims supported by the
// retrieved contexts. An answer with no extractable claims scores 1.0.
func (e *Engine) Faithfulness(ctx context.Context, answer string, contexts []string) float64 {
	claims := e.extractClaims(ctx, answer)
	if len(claims) == 0 {
		return 1.0
	}

	joined := truncate(strings.Join(contexts, "\n\n"), contextTruncateLen)

	supported := 0
	for _, claim := range claims {
		prompt := fmt.Sprintf(
			"Context:\n%s\n\nClaim: %s\n\nIs the claim supported by the context? Answer only YES or NO.",
			joined, claim)
		if isYes(e.ask(ctx, prompt)) {
			supported++
		}
	}
	return clamp01(float64(supported) / float64(len(claims)))
}

// extractClaims asks the judge for a numbered list of factual claims
// and keeps lines that start with a number.
func (e *Engine) extractClaims(ctx context.Context, answer string) []string {
	prompt := fmt.Sprintf(
		"Extract all factual claims from the following answer as a numbered list, one claim per line:\n\n%s",
		answer)
	raw := e.ask(ctx, prompt)

	var claims []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !claimNumberRe.MatchString(line) {
			continue
		}
		claim := strings.TrimSpace(claimNumberRe.ReplaceAllString(line, ""))
		if claim != "" {
			claims = append(claims, claim)
		}
	}
	return claims
}
