package noteify

// NodeKind tags a node of a generic markup tree.
type NodeKind string

// Node kinds understood by BuildDocument. Any other kind is dropped.
const (
	NodeRoot       NodeKind = "root"
	NodeHeading    NodeKind = "heading"
	NodeParagraph  NodeKind = "paragraph"
	NodeText       NodeKind = "text"
	NodeBlockquote NodeKind = "blockquote"
	NodeList       NodeKind = "list"
	NodeListItem   NodeKind = "listItem"
	NodeEmphasis   NodeKind = "emphasis"
	NodeStrong     NodeKind = "strong"
	NodeDelete     NodeKind = "delete"
	NodeLink       NodeKind = "link"
)

// Node is a generic, ordered markup tree as produced by a tokenizer.
type Node struct {
	Kind     NodeKind
	Depth    int    // heading depth, 1-6
	Value    string // text content of leaf nodes
	Line     int    // 1-based source line, 0 if unknown
	Children []*Node
}

// Parser turns raw markup into a generic markup tree.
type Parser interface {
	// Parse tokenizes content. Returns EINVALID if the content cannot be parsed.
	Parse(content []byte) (*Node, error)
}
