// Package depgraph tracks import edges between documents and answers whether
// a document's whole transitive closure has been scanned.
package depgraph

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/engine/deferred"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a graph node.
type State int

const (
	// StateAbsent means the graph has never referenced the URL.
	StateAbsent State = iota
	// StateUnknown means the URL is referenced but its dependencies are not recorded yet.
	StateUnknown
	// StateKnown means the URL's direct dependencies are recorded.
	StateKnown
	// StateFailed means scanning the URL failed.
	StateFailed
)

type node struct {
	deps       map[domain.ResolvedURL]struct{}
	dependants map[domain.ResolvedURL]struct{}
	ready      *deferred.Deferred[[]domain.ResolvedURL]
	err        error
	// inherited marks a pending node copied from a parent graph whose scan was
	// in flight there. It settles when the parent's node settles.
	inherited bool
}

func newNode() *node {
	return &node{
		deps:       make(map[domain.ResolvedURL]struct{}),
		dependants: make(map[domain.ResolvedURL]struct{}),
		ready:      deferred.New[[]domain.ResolvedURL](),
	}
}

// Graph is a bidirectional graph of document URLs.
//
// Within one generation a node moves from unknown to known or failed exactly
// once. Invalidation never mutates a graph; it returns a fork.
type Graph struct {
	mu         sync.RWMutex
	nodes      map[domain.ResolvedURL]*node
	successors []*Graph
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[domain.ResolvedURL]*node)}
}

func (g *Graph) nodeFor(url domain.ResolvedURL) *node {
	n, ok := g.nodes[url]
	if !ok {
		n = newNode()
		g.nodes[url] = n
	}
	return n
}

// AddDocument records url's direct dependencies and settles its node.
// Recording a node twice within one generation is a programmer error.
func (g *Graph) AddDocument(url domain.ResolvedURL, deps []domain.ResolvedURL) error {
	g.mu.Lock()
	n := g.nodeFor(url)
	if n.ready.Settled() {
		g.mu.Unlock()
		return domain.Annotate(domain.ErrDocumentAlreadyRecorded, "url", url)
	}
	recorded := g.record(n, url, deps)
	successors := slices.Clone(g.successors)
	g.mu.Unlock()

	for _, s := range successors {
		s.inherit(url, recorded, nil)
	}
	return nil
}

// RejectDocument marks url as failed. Waiters treat a failed node as having no dependencies.
func (g *Graph) RejectDocument(url domain.ResolvedURL, err error) error {
	g.mu.Lock()
	n := g.nodeFor(url)
	if n.ready.Settled() {
		g.mu.Unlock()
		return domain.Annotate(domain.ErrDocumentAlreadyRecorded, "url", url)
	}
	n.err = err
	n.ready.Reject(err)
	successors := slices.Clone(g.successors)
	g.mu.Unlock()

	for _, s := range successors {
		s.inherit(url, nil, err)
	}
	return nil
}

// record must be called with g.mu held.
func (g *Graph) record(n *node, url domain.ResolvedURL, deps []domain.ResolvedURL) []domain.ResolvedURL {
	for _, dep := range deps {
		n.deps[dep] = struct{}{}
		g.nodeFor(dep).dependants[url] = struct{}{}
	}
	recorded := sortedKeys(n.deps)
	n.ready.Resolve(recorded)
	return recorded
}

// inherit settles an inherited node with the outcome of its parent's node and
// passes the outcome on to later forks.
func (g *Graph) inherit(url domain.ResolvedURL, deps []domain.ResolvedURL, err error) {
	g.mu.Lock()
	n, ok := g.nodes[url]
	if !ok || !n.inherited || n.ready.Settled() {
		g.mu.Unlock()
		return
	}
	n.inherited = false
	if err != nil {
		n.err = err
		n.ready.Reject(err)
	} else {
		g.record(n, url, deps)
	}
	successors := slices.Clone(g.successors)
	g.mu.Unlock()

	for _, s := range successors {
		s.inherit(url, deps, err)
	}
}

// State returns the lifecycle state of url.
func (g *Graph) State(url domain.ResolvedURL) State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[url]
	switch {
	case !ok:
		return StateAbsent
	case !n.ready.Settled():
		return StateUnknown
	case n.err != nil:
		return StateFailed
	default:
		return StateKnown
	}
}

// Err returns the error url was rejected with, or nil.
func (g *Graph) Err(url domain.ResolvedURL) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[url]; ok {
		return n.err
	}
	return nil
}

// DependenciesOf returns url's recorded direct dependencies.
func (g *Graph) DependenciesOf(url domain.ResolvedURL) []domain.ResolvedURL {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[url]; ok {
		return sortedKeys(n.deps)
	}
	return nil
}

// DependantsOf returns the documents that directly depend on url.
func (g *Graph) DependantsOf(url domain.ResolvedURL) []domain.ResolvedURL {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[url]; ok {
		return sortedKeys(n.dependants)
	}
	return nil
}

// GetAllDependantsOf returns every document that transitively depends on url.
// url itself is included only when it depends on itself through a cycle.
func (g *Graph) GetAllDependantsOf(url domain.ResolvedURL) []domain.ResolvedURL {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[domain.ResolvedURL]struct{})
	queue := []domain.ResolvedURL{url}
	var result []domain.ResolvedURL

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		n, ok := g.nodes[current]
		if !ok {
			continue
		}
		for dependant := range n.dependants {
			if _, seen := visited[dependant]; seen {
				continue
			}
			visited[dependant] = struct{}{}
			result = append(result, dependant)
			queue = append(queue, dependant)
		}
	}

	return domain.SortURLs(result)
}

// WhenReady blocks until every document in url's transitive closure is known
// or failed. Failed documents count as having no dependencies. Cycles are
// handled with a per-call visited set. The only error returned is ctx's.
//
// WhenReady never adds nodes. A URL the graph has never referenced is ready,
// so callers record url, or something importing it, before waiting on it.
func (g *Graph) WhenReady(ctx context.Context, url domain.ResolvedURL) error {
	w := &readyWalk{graph: g, visited: make(map[domain.ResolvedURL]struct{})}
	return w.walk(ctx, url)
}

type readyWalk struct {
	graph   *Graph
	mu      sync.Mutex
	visited map[domain.ResolvedURL]struct{}
}

func (w *readyWalk) claim(url domain.ResolvedURL) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.visited[url]; seen {
		return false
	}
	w.visited[url] = struct{}{}
	return true
}

func (w *readyWalk) walk(ctx context.Context, url domain.ResolvedURL) error {
	if !w.claim(url) {
		return nil
	}

	w.graph.mu.RLock()
	n, ok := w.graph.nodes[url]
	w.graph.mu.RUnlock()
	if !ok {
		return nil
	}
	ready := n.ready

	deps, err := ready.Wait(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		// Failed documents are settled; the error is reported elsewhere.
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, dep := range deps {
		eg.Go(func() error {
			return w.walk(egCtx, dep)
		})
	}
	return eg.Wait()
}

// InvalidatePaths returns a fork of g without the nodes for urls. g is not modified.
func (g *Graph) InvalidatePaths(urls []domain.ResolvedURL) *Graph {
	return g.Fork(urls, nil)
}

// Fork returns a copy of g with the nodes for urls removed.
//
// Each removed node is struck from its dependencies' dependant sets. A removed
// node that still has dependants is replaced by an unknown node carrying just
// those dependants, so a later scan of the URL re-establishes its forward
// edges without losing the reverse ones.
//
// URLs listed in inFlight are being scanned against g. Their pending nodes
// are inherited: they settle in the fork when they settle in g. All other
// pending nodes start afresh.
func (g *Graph) Fork(urls, inFlight []domain.ResolvedURL) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	fork := New()
	for url, n := range g.nodes {
		c := &node{
			deps:       maps.Clone(n.deps),
			dependants: maps.Clone(n.dependants),
			err:        n.err,
			ready:      n.ready,
		}
		if !n.ready.Settled() {
			c.ready = deferred.New[[]domain.ResolvedURL]()
		}
		fork.nodes[url] = c
	}
	for _, url := range inFlight {
		// In-flight scans of documents nobody imports have no node yet.
		n := fork.nodeFor(url)
		if !n.ready.Settled() {
			n.inherited = true
		}
	}

	for _, url := range urls {
		removed, ok := fork.nodes[url]
		if !ok {
			continue
		}
		for dep := range removed.deps {
			if depNode, ok := fork.nodes[dep]; ok {
				delete(depNode.dependants, url)
			}
		}
		delete(fork.nodes, url)

		// A self-import was just struck from removed.dependants.
		if len(removed.dependants) > 0 {
			replacement := newNode()
			replacement.dependants = removed.dependants
			fork.nodes[url] = replacement
		}
	}

	g.successors = append(g.successors, fork)
	return fork
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func sortedKeys(set map[domain.ResolvedURL]struct{}) []domain.ResolvedURL {
	return domain.SortURLs(slices.Collect(maps.Keys(set)))
}
