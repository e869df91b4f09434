package scanners

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

// ScriptScanner runs a Risor script over the nodes of a document.
//
// The script sees these globals:
//
//	url   the document URL
//	nodes a list of maps with type, text, line, column, end_line and end_column
//	emit  emit({"kind": k, "id": id, "node": n, "attrs": {...}}) records a feature
//	warn  warn(message) records a script-error warning
//
// A script that fails at runtime produces a warning; it never fails the scan.
type ScriptScanner struct {
	name      string
	source    string
	nodeTypes []string
}

// NewScriptScanner creates a scanner named name that hands the nodes whose
// type is in nodeTypes to source. An empty nodeTypes hands over every node.
func NewScriptScanner(name, source string, nodeTypes []string) *ScriptScanner {
	return &ScriptScanner{name: name, source: source, nodeTypes: nodeTypes}
}

// Name implements ports.Scanner.
func (s *ScriptScanner) Name() string { return s.name }

// Scan implements ports.Scanner.
func (s *ScriptScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var matched []*domain.SourceRange
	var nodes []object.Object
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		if len(s.nodeTypes) > 0 && !slices.Contains(s.nodeTypes, n.Type()) {
			return nil
		}
		r := doc.RangeOf(n)
		matched = append(matched, r)
		nodes = append(nodes, nodeObject(n, r, len(matched)-1))
		return nil
	}))
	if err != nil {
		return ports.ScanResult{}, err
	}
	if len(nodes) == 0 {
		return ports.ScanResult{}, nil
	}

	run := &scriptRun{scanner: s.name, ranges: matched}
	_, evalErr := risor.Eval(ctx, s.source,
		risor.WithGlobal("url", object.NewString(string(doc.URL))),
		risor.WithGlobal("nodes", object.NewList(nodes)),
		risor.WithGlobal("emit", run.emitBuiltin()),
		risor.WithGlobal("warn", run.warnBuiltin()),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ports.ScanResult{}, ctxErr
	}

	res := run.result()
	if evalErr != nil {
		res.Warnings = append(res.Warnings, domain.Warning{
			Code:     domain.WarningScriptError,
			Message:  fmt.Sprintf("%s: %v", s.name, evalErr),
			Severity: domain.SeverityError,
		})
	}
	return res, nil
}

// nodeObject renders a node for the script. The index links emitted
// features back to the node's range.
func nodeObject(n domain.Node, r *domain.SourceRange, index int) object.Object {
	return object.NewMap(map[string]object.Object{
		"type":       object.NewString(n.Type()),
		"text":       object.NewString(n.Text()),
		"line":       object.NewInt(int64(r.Start.Line)),
		"column":     object.NewInt(int64(r.Start.Column)),
		"end_line":   object.NewInt(int64(r.End.Line)),
		"end_column": object.NewInt(int64(r.End.Column)),
		"index":      object.NewInt(int64(index)),
	})
}

type scriptRun struct {
	scanner string
	ranges  []*domain.SourceRange

	mu       sync.Mutex
	features []domain.ScannedFeature
	warnings []domain.Warning
}

func (r *scriptRun) emitBuiltin() *object.Builtin {
	return object.NewBuiltin("emit", func(_ context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		m, ok := args[0].(*object.Map)
		if !ok {
			return object.Errorf("emit: expected map, got %s", args[0].Type())
		}
		fields := m.Value()

		kind := stringField(fields, "kind")
		if kind == "" {
			return object.Errorf("emit: kind is required")
		}
		feature := &domain.ScannedScriptFeature{
			FeatureKind: kind,
			Identifier:  stringField(fields, "id"),
			Attributes:  stringMapField(fields, "attrs"),
			SourceRange: r.rangeOf(fields["node"]),
		}

		r.mu.Lock()
		r.features = append(r.features, feature)
		r.mu.Unlock()
		return object.Nil
	})
}

func (r *scriptRun) warnBuiltin() *object.Builtin {
	return object.NewBuiltin("warn", func(_ context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("warn", 1, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("warn: expected string, got %s", args[0].Type())
		}
		r.mu.Lock()
		r.warnings = append(r.warnings, domain.Warning{
			Code:     domain.WarningScriptError,
			Message:  fmt.Sprintf("%s: %s", r.scanner, msg.Value()),
			Severity: domain.SeverityWarning,
		})
		r.mu.Unlock()
		return object.Nil
	})
}

// rangeOf maps a node map handed to the script back to its range.
func (r *scriptRun) rangeOf(obj object.Object) *domain.SourceRange {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil
	}
	idx, ok := m.Value()["index"].(*object.Int)
	if !ok {
		return nil
	}
	i := int(idx.Value())
	if i < 0 || i >= len(r.ranges) {
		return nil
	}
	return r.ranges[i]
}

func (r *scriptRun) result() ports.ScanResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ports.ScanResult{Features: r.features, Warnings: r.warnings}
}

func stringField(m map[string]object.Object, key string) string {
	if s, ok := m[key].(*object.String); ok {
		return s.Value()
	}
	return ""
}

func stringMapField(m map[string]object.Object, key string) map[string]string {
	inner, ok := m[key].(*object.Map)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(inner.Value()))
	for k, v := range inner.Value() {
		if s, ok := v.(*object.String); ok {
			out[k] = s.Value()
		} else {
			out[k] = v.Inspect()
		}
	}
	return out
}
