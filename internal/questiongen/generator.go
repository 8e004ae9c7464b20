package questiongen

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/llm"
)

const generationSystemPrompt = `Du bist ein Experte für die Erstellung von Prüfungsfragen aus wissenschaftlichen Dokumenten.`

const generationPromptTemplate = `Erstelle aus dem folgenden Dokument %d Frage-Antwort-Paare für die Bewertung eines Dokumenten-Suchsystems.

Anforderungen:
- Die Fragen müssen sich direkt aus dem Dokument beantworten lassen.
- Mische Fragetypen: Definitionsfragen, Faktenfragen, Anwendungsfragen.
- Gib zu jeder Frage die vollständige Antwort aus dem Dokument an.
- Antworte ausschließlich mit einem JSON-Objekt in diesem Format:

{"questions":[{"question":"...","answer":"...","type":"definition|factual|applied","difficulty":"easy|medium|hard","context_needed":"..."}]}

Dokument:
%s`

const (
	generationMaxTokens   = 4000
	generationTemperature = 0.3

	// Documents beyond this size get split in half and generated per
	// half, then merged.
	maxDocumentChars = 60000
)

type generatedQuestion struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Type          string `json:"type"`
	Difficulty    string `json:"difficulty"`
	ContextNeeded string `json:"context_needed"`
}

type generationResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// Generator turns document text into evaluation questions.
type Generator struct {
	provider llm.Provider
	count    int
}

func NewGenerator(provider llm.Provider, count int) *Generator {
	if count <= 0 {
		count = 10
	}
	return &Generator{provider: provider, count: count}
}

// Generate asks the model for question-answer pairs over the document.
// Oversized documents are split in half and the results merged with
// duplicate questions removed.
func (g *Generator) Generate(ctx context.Context, document string) ([]evalrun.Question, error) {
	if g == nil || g.provider == nil {
		return nil, fmt.Errorf("questiongen: no provider configured")
	}
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("questiongen: empty document")
	}

	var raw []generatedQuestion
	if len(document) > maxDocumentChars {
		half := len(document) / 2
		first, err := g.generateChunk(ctx, document[:half])
		if err != nil {
			return nil, err
		}
		second, err := g.generateChunk(ctx, document[half:])
		if err != nil {
			return nil, err
		}
		raw = append(first, second...)
	} else {
		var err error
		raw, err = g.generateChunk(ctx, document)
		if err != nil {
			return nil, err
		}
	}

	return assignIDs(dedupe(raw)), nil
}

func (g *Generator) generateChunk(ctx context.Context, document string) ([]generatedQuestion, error) {
	prompt := fmt.Sprintf(generationPromptTemplate, g.count, document)
	resp, err := g.provider.Complete(ctx, &llm.Request{
		System:      generationSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("questiongen: generate: %w", err)
	}

	var parsed generationResponse
	if err := llm.ParseJSON(llm.Text(resp), &parsed); err != nil {
		return nil, fmt.Errorf("questiongen: parse response: %w", err)
	}
	return parsed.Questions, nil
}

// dedupe removes questions with identical lowercased text, keeping the
// first occurrence.
func dedupe(questions []generatedQuestion) []generatedQuestion {
	seen := make(map[string]struct{}, len(questions))
	out := make([]generatedQuestion, 0, len(questions))
	for _, q := range questions {
		key := strings.ToLower(strings.TrimSpace(q.Question))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

func assignIDs(questions []generatedQuestion) []evalrun.Question {
	out := make([]evalrun.Question, 0, len(questions))
	for i, q := range questions {
		out = append(out, evalrun.Question{
			ID:            fmt.Sprintf("Q%d", i+1),
			Question:      q.Question,
			Answer:        q.Answer,
			Type:          q.Type,
			Difficulty:    q.Difficulty,
			ContextNeeded: q.ContextNeeded,
			Status:        "pending",
			Source:        "auto-generated",
		})
	}
	return out
}
