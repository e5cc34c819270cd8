// Package cycle implements the cycle and validity checks of §4.6: cyclic
// reads-from-union-intra-causality detection (a Tarjan-style DFS over a
// small directed graph, per §9) and, when optace is enabled, the
// intervening-write check on memory RF edges.
package cycle

import (
	"github.com/xojoc/bitset"

	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/rfmap"
)

// RFMapIsCyclic returns true iff the union of po_iico and the store->load
// reads-from edges of rfm contains a cycle. §4.6: used only in
// when_unsolved assertions, never as a direct candidate-rejection path in
// its own right.
func RFMapIsCyclic(s event.Structure, rfm rfmap.Map) bool {
	extra := event.EmptyRelation
	for _, id := range s.SortedIDs() {
		src, ok := rfm.LoadSource(id)
		if !ok || src.IsInit() {
			continue
		}
		extra = extra.Add(src.Store(), id)
	}
	return RelationIsCyclic(s.SortedIDs(), s.PoIico().Union(extra))
}

// RelationIsCyclic reports whether rel, restricted to the given node set,
// contains a cycle — a Tarjan-style DFS using a visited bitset (the same
// visited/onStack membership-set pattern this pack's trace race detectors
// use) plus a plain recursion-stack slice for the ephemeral onStack
// membership a bitset would need clearing to represent.
func RelationIsCyclic(ids []event.ID, rel event.Relation) bool {
	idx := make(map[event.ID]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	n := len(ids)
	adj := make([][]int, n)
	for _, pair := range rel.Pairs() {
		from, ok1 := idx[pair[0]]
		to, ok2 := idx[pair[1]]
		if !ok1 || !ok2 {
			continue
		}
		adj[from] = append(adj[from], to)
	}

	visited := &bitset.BitSet{}
	onStack := make([]bool, n)
	var dfs func(int) bool
	dfs = func(u int) bool {
		visited.Set(u)
		onStack[u] = true
		for _, v := range adj[u] {
			if onStack[v] {
				return true
			}
			if !visited.Get(v) && dfs(v) {
				return true
			}
		}
		onStack[u] = false
		return false
	}
	for i := 0; i < n; i++ {
		if !visited.Get(i) && dfs(i) {
			return true
		}
	}
	return false
}

// CheckRFMap implements §4.6's check_rfmap: it reports whether rfm is
// consistent with po_iico given no intervening writes — false means the
// candidate must be rejected. Only meaningful when optace is enabled; the
// caller decides whether to invoke it.
func CheckRFMap(s event.Structure, rfm rfmap.Map) bool {
	poIico := s.PoIico()
	stores := s.MemoryStores()

	for _, r := range s.MemoryLoads() {
		src, ok := rfm.LoadSource(r.ID)
		if !ok {
			continue
		}
		if src.IsInit() {
			for _, w := range stores {
				if w.Thread != r.Thread || !w.Loc.Equal(r.Loc) {
					continue
				}
				if poIico.IsBefore(w.ID, r.ID) {
					return false
				}
			}
			continue
		}
		w, ok := s.Events[src.Store()]
		if !ok {
			continue
		}
		for _, mid := range stores {
			if mid.ID == w.ID || mid.ID == r.ID || !mid.Loc.Equal(r.Loc) {
				continue
			}
			if poIico.IsBefore(w.ID, mid.ID) && poIico.IsBefore(mid.ID, r.ID) {
				return false
			}
		}
	}
	return true
}
