package noteify

import (
	"encoding/json"
	"strings"
	"sync/atomic"
)

// SectionID is a structural identifier. Identifiers are unique for the
// lifetime of the process and are never reused, even when a document is
// re-parsed with identical content.
type SectionID uint64

// IDAllocator hands out increasing SectionIDs starting at 1.
// The zero value is ready to use and safe for concurrent use.
type IDAllocator struct {
	last atomic.Uint64
}

// Next allocates a new identifier.
func (a *IDAllocator) Next() SectionID {
	return SectionID(a.last.Add(1))
}

// Section is a heading-rooted subtree of a document, nested by heading level.
// Children holds the heading's own inline content.
type Section struct {
	ID       SectionID
	Level    int
	Line     int // 1-based source line of the heading; never sent on the wire
	Blocks   []Block
	Children []Inline
}

func (*Section) block() {}

// Title returns the concatenated text of the heading.
func (s *Section) Title() string {
	var sb strings.Builder
	for _, c := range s.Children {
		if t, ok := c.(*Text); ok {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

// MarshalJSON encodes the section in its wire shape.
func (s *Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string    `json:"kind"`
		ID       SectionID `json:"id"`
		Level    int       `json:"level"`
		Blocks   []Block   `json:"blocks"`
		Children []Inline  `json:"children"`
	}{KindSection, s.ID, s.Level, orEmpty(s.Blocks), orEmpty(s.Children)})
}

// Location is the source position backing a structural identifier.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}
