package botly

import (
	"strings"

	"github.com/trishiras/botly-v3-rag/internal/rag"
)

// contextSeparator joins retrieved chunks in the rendered context block.
const contextSeparator = "\n\n"

// FormatContext concatenates retrieved chunk texts in retrieval order,
// separated by a blank line. An empty result list yields an empty string.
func FormatContext(results []rag.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Content
	}
	return strings.Join(texts, contextSeparator)
}
