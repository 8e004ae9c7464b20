package retrieval

import (
	"encoding/json"
	"strings"
)

// Retrieval deployments differ in how they wrap the result list. The
// adapter walks known top-level keys in a fixed order, then the same
// keys nested under "data".
var passageListKeys = []string{"Documents", "documents", "results", "data"}

type rawPassage struct {
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	UniqueDocumentID string  `json:"uniqueDocumentId"`
	DocumentID       string  `json:"documentId"`
	ChunkIndex       int     `json:"chunkIndex"`
	Chunk            int     `json:"chunk"`
	Content          string  `json:"content"`
	Text             string  `json:"text"`
	PageContent      string  `json:"pageContent"`
	Score            float64 `json:"score"`
}

// extractPassages locates the passage list in an arbitrary response
// body and normalizes it to ranked passages. A body with no matching
// key yields an empty list and the set of keys seen, for diagnostics.
func extractPassages(body []byte) ([]Passage, []string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		// Some deployments return the bare list.
		var list []rawPassage
		if err2 := json.Unmarshal(body, &list); err2 == nil {
			return normalize(list), nil, nil
		}
		return nil, nil, err
	}

	if list, ok := listFromMap(top); ok {
		return normalize(list), nil, nil
	}

	if data, ok := top["data"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(data, &nested) == nil {
			if list, ok := listFromMap(nested); ok {
				return normalize(list), nil, nil
			}
		}
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	return []Passage{}, keys, nil
}

func listFromMap(m map[string]json.RawMessage) ([]rawPassage, bool) {
	for _, key := range passageListKeys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		var list []rawPassage
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		return list, true
	}
	return nil, false
}

func normalize(list []rawPassage) []Passage {
	out := make([]Passage, 0, len(list))
	for i, rp := range list {
		p := Passage{
			Title:            firstNonEmpty(rp.Title, rp.Name),
			UniqueDocumentID: firstNonEmpty(rp.UniqueDocumentID, rp.DocumentID),
			Content:          firstNonEmpty(rp.Content, rp.Text, rp.PageContent),
			Score:            rp.Score,
			Rank:             i + 1,
		}
		p.ChunkIndex = rp.ChunkIndex
		if p.ChunkIndex == 0 && rp.Chunk != 0 {
			p.ChunkIndex = rp.Chunk
		}
		out = append(out, p)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
