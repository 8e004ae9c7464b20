package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarlinkco/rag-eval/internal/embedding"
)

const coverageThreshold = 0.8

// Correctness is the detailed answer-correctness breakdown.
type Correctness struct {
	Standard        float64 `json:"standard"`
	Advanced        float64 `json:"advanced"`
	FactF1          float64 `json:"fact_f1"`
	SemanticSim     float64 `json:"semantic_sim"`
	Coverage        float64 `json:"coverage"`
	AllFactsPresent bool    `json:"all_facts_present"`
}

// AnswerCorrectness compares the answer to the ground truth with three
// signals: F1 over judge-extracted fact sets, embedding similarity, and
// literal word coverage. High coverage lifts the advanced score to at
// least the coverage threshold.
func (e *Engine) AnswerCorrectness(ctx context.Context, answer, groundTruth string) Correctness {
	answerFacts := e.extractFacts(ctx, answer)
	truthFacts := e.extractFacts(ctx, groundTruth)
	f1 := factF1(answerFacts, truthFacts)

	sem := e.semanticSimilarity(ctx, answer, groundTruth)
	cov := wordCoverage(answer, groundTruth)

	standard := 0.5*f1 + 0.5*sem
	advanced := standard
	if cov >= coverageThreshold {
		advanced = 0.3*f1 + 0.7*sem
		if advanced < coverageThreshold {
			advanced = coverageThreshold
		}
	}

	return Correctness{
		Standard:        clamp01(standard),
		Advanced:        clamp01(advanced),
		FactF1:          clamp01(f1),
		SemanticSim:     clamp01(sem),
		Coverage:        clamp01(cov),
		AllFactsPresent: cov >= coverageThreshold,
	}
}

func (e *Engine) extractFacts(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(
		"List the distinct factual statements in the following text, one per line, without numbering or commentary:\n\n%s",
		text)
	raw := e.ask(ctx, prompt)

	var facts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			facts = append(facts, line)
		}
	}
	return facts
}

// factF1 computes F1 over exact fact-string overlap. Two empty sets
// agree perfectly; one empty set scores zero.
func factF1(answerFacts, truthFacts []string) float64 {
	if len(answerFacts) == 0 && len(truthFacts) == 0 {
		return 1.0
	}
	if len(answerFacts) == 0 || len(truthFacts) == 0 {
		return 0.0
	}

	truthSet := make(map[string]struct{}, len(truthFacts))
	for _, f := range truthFacts {
		truthSet[f] = struct{}{}
	}

	overlap := 0
	for _, f := range answerFacts {
		if _, ok := truthSet[f]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0.0
	}

	precision := float64(overlap) / float64(len(answerFacts))
	recall := float64(overlap) / float64(len(truthFacts))
	return 2 * precision * recall / (precision + recall)
}

func (e *Engine) semanticSimilarity(ctx context.Context, answer, groundTruth string) float64 {
	if e == nil || e.embedder == nil {
		return 0.0
	}
	vecs, err := e.embedder.Embed(ctx, []string{answer, groundTruth})
	if err != nil || len(vecs) != 2 {
		return 0.0
	}
	return embedding.Cosine(vecs[0], vecs[1])
}

// wordCoverage is the fraction of longer ground-truth words literally
// present in the lowercased answer.
func wordCoverage(answer, groundTruth string) float64 {
	lowerAnswer := strings.ToLower(answer)

	var total, found int
	for _, w := range strings.Fields(strings.ToLower(groundTruth)) {
		if len(w) <= 3 {
			continue
		}
		total++
		if strings.Contains(lowerAnswer, w) {
			found++
		}
	}
	if total == 0 {
		return 0.0
	}
	return float64(found) / float64(total)
}
