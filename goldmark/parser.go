// Package goldmark adapts the goldmark markdown parser to noteify.Parser.
package goldmark

import (
	"bytes"
	"sort"
	"unicode/utf8"

	"github.com/fwojciec/noteify"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Ensure Parser implements noteify.Parser at compile time.
var _ noteify.Parser = (*Parser)(nil)

// Parser parses GitHub flavored markdown into a generic markup tree.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new Parser with the GFM extensions enabled.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Parse tokenizes content. A leading YAML front matter block is ignored.
func (p *Parser) Parse(content []byte) (*noteify.Node, error) {
	if !utf8.Valid(content) {
		return nil, noteify.Errorf(noteify.EINVALID, "content is not valid UTF-8")
	}

	src := blankFrontMatter(content)
	doc := p.md.Parser().Parse(text.NewReader(src))

	c := &converter{src: src, cursor: 1, next: 1}
	for i, b := range src {
		if b == '\n' {
			c.newlines = append(c.newlines, i)
		}
	}
	return c.convert(doc), nil
}

// converter walks a goldmark AST. Nodes without position inherit the line
// of the closest preceding positioned node. next is the first line after
// the last positioned block.
type converter struct {
	src      []byte
	newlines []int
	cursor   int
	next     int
}

func (c *converter) convert(n ast.Node) *noteify.Node {
	node := &noteify.Node{Line: c.lineOf(n)}

	switch v := n.(type) {
	case *ast.Document:
		node.Kind = noteify.NodeRoot
	case *ast.Heading:
		node.Kind = noteify.NodeHeading
		node.Depth = v.Level
	case *ast.Paragraph, *ast.TextBlock:
		node.Kind = noteify.NodeParagraph
	case *ast.Text:
		node.Kind = noteify.NodeText
		node.Value = string(v.Segment.Value(c.src))
		if v.SoftLineBreak() || v.HardLineBreak() {
			node.Value += "\n"
		}
		return node
	case *ast.String:
		node.Kind = noteify.NodeText
		node.Value = string(v.Value)
		return node
	case *ast.AutoLink:
		node.Kind = noteify.NodeText
		node.Value = string(v.Label(c.src))
		return node
	case *ast.Blockquote:
		node.Kind = noteify.NodeBlockquote
	case *ast.List:
		node.Kind = noteify.NodeList
	case *ast.ListItem:
		node.Kind = noteify.NodeListItem
	case *ast.Emphasis:
		node.Kind = noteify.NodeEmphasis
		if v.Level >= 2 {
			node.Kind = noteify.NodeStrong
		}
	case *ast.Link:
		node.Kind = noteify.NodeLink
	case *extast.Strikethrough:
		node.Kind = noteify.NodeDelete
	default:
		// Unsupported kinds keep goldmark's name and are dropped by the builder.
		node.Kind = noteify.NodeKind(n.Kind().String())
		return node
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		node.Children = append(node.Children, c.convert(child))
	}
	return node
}

func (c *converter) lineOf(n ast.Node) int {
	switch v := n.(type) {
	case *ast.Text:
		c.cursor = c.lineAt(v.Segment.Start)
	default:
		if n.Type() != ast.TypeBlock {
			break
		}
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			c.cursor = c.lineAt(lines.At(0).Start)
			last := lines.At(lines.Len() - 1)
			c.next = c.lineAt(max(last.Start, last.Stop-1)) + 1
		} else if _, ok := n.(*ast.Heading); ok {
			// Empty ATX headings carry no segment.
			c.cursor = c.headingLineFrom(c.next)
			c.next = c.cursor + 1
		}
	}
	return c.cursor
}

// headingLineFrom returns the first line at or after from that starts an
// ATX heading.
func (c *converter) headingLineFrom(from int) int {
	for line := from; line <= len(c.newlines)+1; line++ {
		if bytes.HasPrefix(bytes.TrimLeft(c.line(line), " "), []byte("#")) {
			return line
		}
	}
	return from
}

// line returns the bytes of a 1-based line without its newline.
func (c *converter) line(n int) []byte {
	start := 0
	if n > 1 {
		start = c.newlines[n-2] + 1
	}
	end := len(c.src)
	if n <= len(c.newlines) {
		end = c.newlines[n-1]
	}
	return c.src[start:end]
}

// lineAt returns the 1-based line containing byte offset off.
func (c *converter) lineAt(off int) int {
	return sort.SearchInts(c.newlines, off) + 1
}

// blankFrontMatter replaces a leading "---" delimited block with spaces so
// it is not parsed as markdown while line numbers stay intact.
func blankFrontMatter(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return content
	}

	rest := content[3:]
	end := -1
	for off := 0; off < len(rest); {
		nl := bytes.IndexByte(rest[off:], '\n')
		if nl < 0 {
			break
		}
		line := bytes.TrimRight(rest[off:off+nl], "\r")
		if off > 0 && (bytes.Equal(line, []byte("---")) || bytes.Equal(line, []byte("..."))) {
			end = 3 + off + nl
			break
		}
		off += nl + 1
	}
	if end < 0 {
		return content
	}

	out := bytes.Clone(content)
	for i := 0; i < end; i++ {
		if out[i] != '\n' && out[i] != '\r' {
			out[i] = ' '
		}
	}
	return out
}
