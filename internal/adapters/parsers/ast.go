package parsers

import (
	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/sieve/internal/core/domain"
)

var (
	_ domain.AST  = (*tree)(nil)
	_ domain.Node = node{}
)

// tree is a parsed tree-sitter syntax tree. It keeps the source, which
// tree-sitter nodes do not carry.
type tree struct {
	root *sitter.Node
	src  []byte
}

// Walk visits every named node in pre-order.
func (t *tree) Walk(visitors ...domain.Visitor) error {
	if t.root == nil {
		return nil
	}
	return t.walk(t.root, visitors)
}

func (t *tree) walk(n *sitter.Node, visitors []domain.Visitor) error {
	wrapped := node{n: n, src: t.src}
	for _, v := range visitors {
		if err := v.Visit(wrapped); err != nil {
			return err
		}
	}
	count := int(n.NamedChildCount())
	for i := range count {
		if err := t.walk(n.NamedChild(i), visitors); err != nil {
			return err
		}
	}
	return nil
}

// node adapts a tree-sitter node to domain.Node.
type node struct {
	n   *sitter.Node
	src []byte
}

func (n node) Type() string {
	return n.n.Type()
}

func (n node) Text() string {
	return n.n.Content(n.src)
}

func (n node) Range() domain.SourceRange {
	return domain.SourceRange{
		Start: point(n.n.StartPoint()),
		End:   point(n.n.EndPoint()),
	}
}

func (n node) Field(name string) domain.Node {
	child := n.n.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return node{n: child, src: n.src}
}

func (n node) NamedChildren() []domain.Node {
	count := int(n.n.NamedChildCount())
	children := make([]domain.Node, 0, count)
	for i := range count {
		children = append(children, node{n: n.n.NamedChild(i), src: n.src})
	}
	return children
}

func point(p sitter.Point) domain.SourcePosition {
	return domain.SourcePosition{Line: int(p.Row), Column: int(p.Column)}
}
