// Package answer generates cited answers from retrieved passages and
// detects refusals.
package answer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stellarlinkco/rag-eval/internal/llm"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

const systemPrompt = `You are a precise assistant that answers questions strictly from the provided documents.

Rules:
- Base every claim on the documents and cite the supporting document with its citation index in square brackets, e.g. [1] or [2].
- Every factual claim must carry at least one citation.
- Do not use background knowledge. If the documents do not contain the answer, refuse in the same language as the question and say the documents do not contain the requested information.
- Answer in the language of the question.`

const (
	answerMaxTokens   = 1000
	answerTemperature = 0.3
)

type citedDoc struct {
	CitationIndex int    `json:"citation_index"`
	SourceText    string `json:"source_text"`
	Title         string `json:"title"`
	Chunk         int    `json:"chunk"`
}

// Generator produces cited answers for a question given its passages.
type Generator struct {
	provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate builds the citation-indexed document payload and asks the
// model for a cited answer. Failures degrade to an error string so a
// batch run records the failure instead of aborting.
func (g *Generator) Generate(ctx context.Context, question string, passages []retrieval.Passage) string {
	if g == nil || g.provider == nil {
		return "Error generating answer: no provider configured"
	}

	docs := make([]citedDoc, 0, len(passages))
	for i, p := range passages {
		docs = append(docs, citedDoc{
			CitationIndex: i + 1,
			SourceText:    p.Content,
			Title:         p.Title,
			Chunk:         p.ChunkIndex,
		})
	}

	payload, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating answer: %v", err)
	}

	prompt := fmt.Sprintf("Documents:\n%s\n\nQuestion: %s", payload, question)
	resp, err := g.provider.Complete(ctx, &llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return fmt.Sprintf("Error generating answer: %v", err)
	}
	return llm.Text(resp)
}
