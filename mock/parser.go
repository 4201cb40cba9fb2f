package mock

import (
	"github.com/fwojciec/noteify"
)

var _ noteify.Parser = (*Parser)(nil)

// Parser is a mock implementation of noteify.Parser.
type Parser struct {
	ParseFn func(content []byte) (*noteify.Node, error)
}

func (p *Parser) Parse(content []byte) (*noteify.Node, error) {
	return p.ParseFn(content)
}
