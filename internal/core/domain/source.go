package domain

import "fmt"

// SourcePosition is a zero-based line and column within a document.
type SourcePosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p sorts before o.
func (p SourcePosition) Before(o SourcePosition) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// SourceRange is the span of a feature within a file.
type SourceRange struct {
	File  ResolvedURL    `json:"file"`
	Start SourcePosition `json:"start"`
	End   SourcePosition `json:"end"`
}

// String renders the range as file:line:column, one-based for humans.
func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.Start.Line+1, r.Start.Column+1)
}

// LocationOffset translates positions inside an embedded document into
// positions inside its container.
type LocationOffset struct {
	Line     int
	Column   int
	Filename ResolvedURL
}

// Apply returns r moved into container coordinates. Only positions on the
// first line of the embedded document are shifted by the column offset.
func (o LocationOffset) Apply(r *SourceRange) *SourceRange {
	if r == nil {
		return nil
	}
	out := *r
	out.Start = o.shift(r.Start)
	out.End = o.shift(r.End)
	if o.Filename != "" {
		out.File = o.Filename
	}
	return &out
}

func (o LocationOffset) shift(p SourcePosition) SourcePosition {
	if p.Line == 0 {
		p.Column += o.Column
	}
	p.Line += o.Line
	return p
}

// Node is one syntax node of a parsed document.
type Node interface {
	// Type is the grammar node type, e.g. "import_statement".
	Type() string
	// Text is the source text covered by the node.
	Text() string
	// Range is the node's position in its own document.
	Range() SourceRange
	// Field returns the child stored under the given grammar field, or nil.
	Field(name string) Node
	// NamedChildren returns the node's named children in source order.
	NamedChildren() []Node
}

// Visitor is invoked once for every node of a traversal.
type Visitor interface {
	Visit(node Node) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(node Node) error

// Visit calls f(node).
func (f VisitorFunc) Visit(node Node) error {
	return f(node)
}

// AST is a parsed syntax tree that can be traversed.
type AST interface {
	// Walk performs one pre-order traversal, calling every visitor on every
	// node. The first visitor error stops the traversal and is returned.
	Walk(visitors ...Visitor) error
}
