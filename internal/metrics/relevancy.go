package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarlinkco/rag-eval/internal/embedding"
)

// AnswerRelevancy measures how well the answer addresses the question:
// the judge reverses the answer into candidate questions, and the score
// is the mean embedding similarity between those and the original
// question. When no questions come back the score degrades to 0.5.
func (e *Engine) AnswerRelevancy(ctx context.Context, question, answer string) float64 {
	generated := e.generateQuestions(ctx, answer)
	if len(generated) == 0 {
		return 0.5
	}
	if e.embedder == nil {
		return 0.5
	}

	texts := append([]string{question}, generated...)
	vecs, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		return 0.5
	}

	var sum float64
	for _, v := range vecs[1:] {
		sum += embedding.Cosine(vecs[0], v)
	}
	return clamp01(sum / float64(len(generated)))
}

func (e *Engine) generateQuestions(ctx context.Context, answer string) []string {
	prompt := fmt.Sprintf(
		"Generate 3 questions that the following answer would be a good answer to. Return them as a numbered list, one question per line:\n\n%s",
		answer)
	raw := e.ask(ctx, prompt)

	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !claimNumberRe.MatchString(line) {
			continue
		}
		q := strings.TrimSpace(claimNumberRe.ReplaceAllString(line, ""))
		if q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}
