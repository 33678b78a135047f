package engine

import "sync"

// Graph is the entity co-occurrence adjacency built from fragment content.
// Edges are undirected and purely pairwise — no transitive closure. Edges are
// additive: deleting a fragment drops its entity list but keeps edges other
// fragments may also have contributed, which is acceptable for an
// approximation layer.
type Graph struct {
	mu         sync.RWMutex
	adj        map[string]map[string]bool
	byFragment map[string][]string
}

// NewGraph creates an empty relationship graph.
func NewGraph() *Graph {
	return &Graph{
		adj:        make(map[string]map[string]bool),
		byFragment: make(map[string][]string),
	}
}

// Index records the entities for a fragment and inserts a symmetric edge for
// every pair of distinct entities co-occurring in its content. Re-indexing an
// id replaces its entity list.
func (g *Graph) Index(fragmentID string, entities []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.byFragment[fragmentID] = append([]string(nil), entities...)

	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			if entities[i] == entities[j] {
				continue
			}
			g.link(entities[i], entities[j])
			g.link(entities[j], entities[i])
		}
	}
}

func (g *Graph) link(from, to string) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[string]bool)
		g.adj[from] = set
	}
	set[to] = true
}

// Remove drops the entity list for a fragment. Co-occurrence edges stay.
func (g *Graph) Remove(fragmentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.byFragment, fragmentID)
}

// Related returns the adjacency set for an entity, or nil if unknown.
func (g *Graph) Related(entity string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set, ok := g.adj[entity]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	return out
}

// FragmentEntities returns the entities indexed for a fragment.
func (g *Graph) FragmentEntities(fragmentID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.byFragment[fragmentID]...)
}

// relatedSet builds the union of each query entity's neighborhood, including
// the query entities themselves. Used by the ranker's knowledge-graph boost.
func (g *Graph) relatedSet(queryEntities []string) map[string]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := make(map[string]bool)
	for _, qe := range queryEntities {
		set[qe] = true
		for e := range g.adj[qe] {
			set[e] = true
		}
	}
	return set
}
