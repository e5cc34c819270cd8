package event

import (
	"sort"

	"github.com/benbjohnson/immutable"
)

// Relation is a persistent directed relation over Event IDs: the building
// block for intra-causality-data, intra-causality-control, po_iico, ppoloc,
// store_load_vbf, init_load_vbf, last_store_vbf and pco (§3, §4.5). Every
// mutating method returns a fresh Relation; the receiver is untouched, in
// keeping with the "fresh value, no in-place edits" lifecycle rule of §3.
type Relation struct {
	adj *immutable.Map[ID, *immutable.Map[ID, bool]]
}

// EmptyRelation is the relation with no pairs.
var EmptyRelation = Relation{}

func (r Relation) ensure() *immutable.Map[ID, *immutable.Map[ID, bool]] {
	if r.adj == nil {
		return immutable.NewMap[ID, *immutable.Map[ID, bool]](nil)
	}
	return r.adj
}

// Add returns a Relation with the pair (from, to) added.
func (r Relation) Add(from, to ID) Relation {
	adj := r.ensure()
	row, ok := adj.Get(from)
	if !ok {
		row = immutable.NewMap[ID, bool](nil)
	}
	row = row.Set(to, true)
	return Relation{adj: adj.Set(from, row)}
}

// Contains reports whether (from, to) is a pair of r.
func (r Relation) Contains(from, to ID) bool {
	if r.adj == nil {
		return false
	}
	row, ok := r.adj.Get(from)
	if !ok {
		return false
	}
	_, ok = row.Get(to)
	return ok
}

// Successors returns the targets of from, in ascending ID order (§5
// ordering guarantees require stable iteration by event identifier).
func (r Relation) Successors(from ID) []ID {
	if r.adj == nil {
		return nil
	}
	row, ok := r.adj.Get(from)
	if !ok {
		return nil
	}
	out := make([]ID, 0, row.Len())
	it := row.Iterator()
	for !it.Done() {
		to, _, _ := it.Next()
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Pairs returns every (from, to) pair, ordered by from then to.
func (r Relation) Pairs() [][2]ID {
	if r.adj == nil {
		return nil
	}
	var out [][2]ID
	it := r.adj.Iterator()
	for !it.Done() {
		from, row, _ := it.Next()
		rowIt := row.Iterator()
		for !rowIt.Done() {
			to, _, _ := rowIt.Next()
			out = append(out, [2]ID{from, to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Union returns the union of r and other.
func (r Relation) Union(other Relation) Relation {
	out := r
	for _, pair := range other.Pairs() {
		out = out.Add(pair[0], pair[1])
	}
	return out
}

// Nodes returns every ID that appears as a source in r, ascending.
func (r Relation) Nodes() []ID {
	if r.adj == nil {
		return nil
	}
	out := make([]ID, 0, r.adj.Len())
	it := r.adj.Iterator()
	for !it.Done() {
		from, _, _ := it.Next()
		out = append(out, from)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Remap applies fn to every ID in r, producing a fresh Relation. Used by
// the relabeller (§4.2) to move events onto the canonical prefix.
func (r Relation) Remap(fn func(ID) ID) Relation {
	out := EmptyRelation
	for _, pair := range r.Pairs() {
		out = out.Add(fn(pair[0]), fn(pair[1]))
	}
	return out
}

// IsBefore reports whether to is reachable from from, i.e. from precedes to
// transitively in r. Used wherever §4 asks "strictly before under
// intra-causality": po_iico is the plain union of intra-causality-data and
// -control, not their transitive closure, so callers normally pass po_iico
// here and let the reachability walk supply transitivity.
func (r Relation) IsBefore(from, to ID) bool {
	visited := map[ID]bool{}
	stack := []ID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range r.Successors(cur) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
