package agent

import (
	"fmt"
	"strings"

	"mentat/internal/domain"
)

const resultsHeader = "Tool execution results:"

// AppendResults formats a batch's results into a single conversation entry:
// a header, then one 1-indexed section per result holding its canonical
// serialization. The message carries collapsible/collapsed metadata for the
// UI layer and is appended even when every result failed, since failures
// must stay visible to the user. The append is atomic: the message is fully built
// before the conversation is touched.
func AppendResults(conv *Conversation, results []domain.ToolResult) {
	var b strings.Builder
	b.WriteString(resultsHeader)
	for i, r := range results {
		fmt.Fprintf(&b, "\n\n## Tool Call %d\n%s", i+1, r.Serialize())
	}

	conv.Append(domain.Message{
		Role:    domain.RoleTool,
		Content: b.String(),
		Metadata: map[string]string{
			domain.MetaCollapsible: "true",
			domain.MetaCollapsed:   "true",
		},
	})
}
