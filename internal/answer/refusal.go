package answer

import "strings"

// Refusal phrases in English and German. Matching is a case-insensitive
// substring check over the whole answer.
var refusalPatterns = []string{
	"do not provide information",
	"do not contain information",
	"cannot answer",
	"can't answer",
	"unable to answer",
	"no information found",
	"could not find",
	"not found in the documents",
	"documents don't contain",
	"if you could provide more context",

	"keine information",
	"nicht gefunden",
	"kann nicht beantworten",
	"keine antwort",
	"nicht in den dokumenten",
	"dokumente enthalten nicht",
	"nicht verfügbar",
	"keine angaben",
	"wenn sie mehr kontext",
}

// IsRefusal reports whether an answer declines to answer the question.
func IsRefusal(answer string) bool {
	lower := strings.ToLower(answer)
	for _, p := range refusalPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
