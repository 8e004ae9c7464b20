// Package retrieval queries the document retrieval service in its
// original and reranked configurations.
package retrieval

// Variant identifies which retrieval configuration produced a result.
type Variant string

const (
	VariantOriginal Variant = "original"
	VariantReranked Variant = "reranked"
)

// Passage is one retrieved chunk in ranked order.
type Passage struct {
	Title            string  `json:"title"`
	UniqueDocumentID string  `json:"uniqueDocumentId"`
	ChunkIndex       int     `json:"chunkIndex"`
	Content          string  `json:"content"`
	Score            float64 `json:"score"`
	Rank             int     `json:"rank"`
}

// Scope restricts retrieval to specific folders or document titles.
type Scope struct {
	FolderIDs    []string `json:"folderIds"`
	UniqueTitles []string `json:"uniqueTitles"`
}

// SystemResult is the outcome of one variant's retrieval call.
type SystemResult struct {
	Variant   Variant   `json:"variant"`
	Passages  []Passage `json:"passages"`
	ElapsedMs int64     `json:"elapsed_ms"`
	Err       error     `json:"-"`
}
