// Package rfmap implements the RFMap model of §3: the mapping from every
// load (register or memory) and every observed-location final slot to
// either Init or a specific store event. Grounded on distsys/trace's
// *immutable.Map-backed persistent map pattern: every mutation returns a
// fresh RFMap, matching the "built incrementally but each intermediate
// version is a fresh value" lifecycle rule.
package rfmap

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/loc"
)

// Key is either a Load(event) or a Final(location) — the two key shapes
// named in §3.
type Key struct {
	isFinal bool
	load    event.ID
	final   loc.Location
}

// LoadKey builds the key for the load at event id.
func LoadKey(id event.ID) Key {
	return Key{load: id}
}

// FinalKey builds the key for the final-store slot of loc.
func FinalKey(l loc.Location) Key {
	return Key{isFinal: true, final: l}
}

func (k Key) IsFinal() bool        { return k.isFinal }
func (k Key) Load() event.ID       { return k.load }
func (k Key) FinalLoc() loc.Location { return k.final }

func (k Key) Equal(other Key) bool {
	if k.isFinal != other.isFinal {
		return false
	}
	if k.isFinal {
		return k.final.Equal(other.final)
	}
	return k.load == other.load
}

func (k Key) Hash() uint32 {
	if k.isFinal {
		return 0x9e3779b1 ^ k.final.Hash()
	}
	return uint32(k.load) * 2654435761
}

func (k Key) String() string {
	if k.isFinal {
		return fmt.Sprintf("Final(%v)", k.final)
	}
	return fmt.Sprintf("Load(e%d)", k.load)
}

// keyHasher adapts Key for immutable.Map.
type keyHasher struct{}

func (keyHasher) Hash(k Key) uint32      { return k.Hash() }
func (keyHasher) Equal(a, b Key) bool    { return a.Equal(b) }

// Source is the value side of an RFMap entry: either Init or Store(w).
type Source struct {
	isInit bool
	store  event.ID
}

// Init is the "reads the initial value" source.
var Init = Source{isInit: true}

// FromStore builds the "reads from event w" source.
func FromStore(w event.ID) Source {
	return Source{store: w}
}

func (s Source) IsInit() bool    { return s.isInit }
func (s Source) Store() event.ID { return s.store }

func (s Source) String() string {
	if s.isInit {
		return "Init"
	}
	return fmt.Sprintf("Store(e%d)", s.store)
}

// Map is an immutable RFMap.
type Map struct {
	entries *immutable.Map[Key, Source]
}

// Empty is the RFMap with no entries.
var Empty = Map{}

func (m Map) ensure() *immutable.Map[Key, Source] {
	if m.entries == nil {
		return immutable.NewMap[Key, Source](keyHasher{})
	}
	return m.entries
}

// WithLoad returns a fresh Map recording that the load at id reads from src.
func (m Map) WithLoad(id event.ID, src Source) Map {
	return Map{entries: m.ensure().Set(LoadKey(id), src)}
}

// WithFinal returns a fresh Map recording that l's final slot is src.
func (m Map) WithFinal(l loc.Location, src Source) Map {
	return Map{entries: m.ensure().Set(FinalKey(l), src)}
}

// Lookup returns the source recorded for key, if any.
func (m Map) Lookup(key Key) (Source, bool) {
	if m.entries == nil {
		return Source{}, false
	}
	return m.entries.Get(key)
}

// LoadSource is sugar for Lookup(LoadKey(id)).
func (m Map) LoadSource(id event.ID) (Source, bool) {
	return m.Lookup(LoadKey(id))
}

// FinalSource is sugar for Lookup(FinalKey(l)).
func (m Map) FinalSource(l loc.Location) (Source, bool) {
	return m.Lookup(FinalKey(l))
}

// Len reports the number of entries.
func (m Map) Len() int {
	if m.entries == nil {
		return 0
	}
	return m.entries.Len()
}

// Keys returns every key in m, memory-load keys before register-load keys
// before final keys, each group ordered by underlying identifier — the
// stable iteration order §5 requires wherever an RFMap is walked.
func (m Map) Keys(isMemoryLoad func(event.ID) bool) []Key {
	if m.entries == nil {
		return nil
	}
	var memLoads, regLoads, finals []Key
	it := m.entries.Iterator()
	for !it.Done() {
		k, _, _ := it.Next()
		switch {
		case k.isFinal:
			finals = append(finals, k)
		case isMemoryLoad(k.load):
			memLoads = append(memLoads, k)
		default:
			regLoads = append(regLoads, k)
		}
	}
	sort.Slice(memLoads, func(i, j int) bool { return memLoads[i].load < memLoads[j].load })
	sort.Slice(regLoads, func(i, j int) bool { return regLoads[i].load < regLoads[j].load })
	sort.Slice(finals, func(i, j int) bool {
		return finals[i].final.String() < finals[j].final.String()
	})
	keys := make([]Key, 0, len(memLoads)+len(regLoads)+len(finals))
	keys = append(keys, memLoads...)
	keys = append(keys, regLoads...)
	return append(keys, finals...)
}

// CheckComplete verifies the §3 RFMap invariant that every load in s
// appears as a key exactly once. Returns an error describing the first
// missing load; this is an internal-invariant check (§7), not a candidate
// rejection.
func (m Map) CheckComplete(s event.Structure) error {
	for _, id := range s.SortedIDs() {
		e := s.Events[id]
		if !e.Kind.IsLoad() {
			continue
		}
		if _, ok := m.LoadSource(id); !ok {
			return fmt.Errorf("rfmap: load e%d has no RFMap entry", id)
		}
	}
	return nil
}
