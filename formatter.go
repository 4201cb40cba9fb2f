package noteify

import (
	"strconv"
	"strings"
)

// FormatOutline formats a document as its path followed by one line per
// section, indented by nesting depth. Section identifiers are shown in
// brackets so they can be passed to a reveal request.
func FormatOutline(doc *Root) string {
	var sb strings.Builder
	sb.WriteString(doc.Path)
	writeOutline(&sb, doc.Blocks, 1)
	return sb.String()
}

func writeOutline(sb *strings.Builder, blocks []Block, depth int) {
	for _, b := range blocks {
		s, ok := b.(*Section)
		if !ok {
			continue
		}

		title := strings.TrimSpace(s.Title())
		if title == "" {
			title = "(untitled)"
		}

		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(strings.Repeat("#", s.Level))
		sb.WriteString(" ")
		sb.WriteString(title)
		sb.WriteString(" [")
		sb.WriteString(strconv.FormatUint(uint64(s.ID), 10))
		sb.WriteString("]")

		writeOutline(sb, s.Blocks, depth+1)
	}
}
