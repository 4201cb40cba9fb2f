package noteify

// BuildDocument converts a generic markup tree into a document tree for path,
// allocating a fresh identifier for every section.
//
// Headings nest by depth: a heading of depth D closes every open section of
// level >= D. Returns EINVALID when the markup is structurally inconsistent
// (block content inside inline content, or text outside of it); no partial
// tree is returned in that case.
func BuildDocument(path string, root *Node, alloc *IDAllocator) (*Root, error) {
	if root == nil {
		return nil, Errorf(EINVALID, "%s: empty markup tree", path)
	}

	doc := &Root{Path: path}
	b := &treeBuilder{
		path:     path,
		alloc:    alloc,
		sections: []openSection{{level: 0, blocks: &doc.Blocks}},
	}
	if err := b.visit(root); err != nil {
		return nil, err
	}
	return doc, nil
}

// openSection is an entry of the section stack. The root has level 0 and is
// therefore never popped.
type openSection struct {
	level  int
	blocks *[]Block
}

type treeBuilder struct {
	path     string
	alloc    *IDAllocator
	sections []openSection
	inlines  []*[]Inline
}

func (b *treeBuilder) visit(n *Node) error {
	switch n.Kind {
	case NodeHeading:
		if len(b.inlines) > 0 {
			return b.errorf(n, "heading inside inline content")
		}
		if n.Depth < 1 {
			return b.errorf(n, "heading depth %d", n.Depth)
		}

		for b.top().level >= n.Depth {
			b.sections = b.sections[:len(b.sections)-1]
		}

		s := &Section{ID: b.alloc.Next(), Level: n.Depth, Line: n.Line}
		b.appendBlock(s)
		b.sections = append(b.sections, openSection{level: s.Level, blocks: &s.Blocks})
		return b.visitInline(n, &s.Children)

	case NodeParagraph:
		if len(b.inlines) > 0 {
			return b.errorf(n, "paragraph inside inline content")
		}

		cb := &ContentBlock{}
		b.appendBlock(cb)
		return b.visitInline(n, &cb.Children)

	case NodeText:
		if len(b.inlines) == 0 {
			return b.errorf(n, "text outside inline content")
		}

		parent := b.inlines[len(b.inlines)-1]
		*parent = append(*parent, &Text{Content: n.Value})
		return nil

	case NodeRoot, NodeBlockquote, NodeList, NodeListItem,
		NodeEmphasis, NodeStrong, NodeDelete, NodeLink:
		return b.visitChildren(n)

	default:
		return nil
	}
}

func (b *treeBuilder) visitInline(n *Node, children *[]Inline) error {
	b.inlines = append(b.inlines, children)
	if err := b.visitChildren(n); err != nil {
		return err
	}
	b.inlines = b.inlines[:len(b.inlines)-1]
	return nil
}

func (b *treeBuilder) visitChildren(n *Node) error {
	for _, child := range n.Children {
		if err := b.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (b *treeBuilder) top() openSection {
	return b.sections[len(b.sections)-1]
}

func (b *treeBuilder) appendBlock(blk Block) {
	parent := b.top().blocks
	*parent = append(*parent, blk)
}

func (b *treeBuilder) errorf(n *Node, format string, args ...any) *Error {
	return Errorf(EINVALID, "%s:%d: "+format, append([]any{b.path, n.Line}, args...)...)
}
