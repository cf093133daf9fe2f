package vela

import (
	"sync/atomic"

	"github.com/dolthub/swiss"
)

// PropertyAttrs is the compact bitset spec.md §3 describes for the
// in-structure PropertyDescriptor: writable/enumerable/configurable
// plus the data-vs-accessor and plain-vs-native-accessor distinctions.
type PropertyAttrs uint8

const (
	AttrWritable PropertyAttrs = 1 << iota
	AttrEnumerable
	AttrConfigurable
	AttrAccessor     // set: accessor (getter/setter); clear: data
	AttrNativeAccessor // set: native data accessor mediated by Go functions
)

func (a PropertyAttrs) Has(f PropertyAttrs) bool { return a&f != 0 }

// DefaultDataAttrs matches what ES5 §8.12.9 calls "all the default
// attribute values" for a newly created own property.
const DefaultDataAttrs = AttrWritable | AttrEnumerable | AttrConfigurable

// propEntry is one row of a Structure's ordered property vector. For
// AttrNativeAccessor entries, `native` carries the getter/setter pair
// directly (spec.md §3: "a native data accessor... mediates reads/
// writes through the functions") since a native accessor is part of
// the shared hidden class, not per-object state; `slot` is unused for
// such entries (no value vector storage is consumed).
type propEntry struct {
	name   string
	attrs  PropertyAttrs
	slot   int
	native *NativeAccessor
}

// NativeAccessor mediates a "native data accessor" property -- one
// whose storage lives in Go rather than in the object's slot vector
// (spec.md §3), e.g. Array.prototype.length or a RegExp's lastIndex.
type NativeAccessor struct {
	Get func(state *ExecutionState, this Value) (Value, *Error)
	Set func(state *ExecutionState, this Value, v Value) *Error
}

// sideHashThreshold is the property count above which a Structure
// builds a side hash index instead of relying on linear scan
// (spec.md §4.2: "O(n) linear for small structures, O(1) via side
// hash above a threshold (e.g. 8)").
const sideHashThreshold = 8

// transitionKey identifies one edge out of a Structure: adding
// `name` with attribute bits `attrs` always reaches the same shared
// successor Structure (spec.md §3: "Structure is immutable once
// shared").
type transitionKey struct {
	name  string
	attrs PropertyAttrs
}

var nextStructureID uint64

// Structure is the hidden class shared across every Object with an
// identical property layout. It is immutable while in_transition_mode:
// Add/Remove/ChangeAttributes never mutate an existing Structure in
// that mode, they return (possibly newly allocated, possibly
// memoized-via-transition) successors. ConvertToFastAccess leaves
// transition mode, after which edits mutate the Structure in place;
// nothing in the engine calls it.
type Structure struct {
	id       uint64
	entries  []propEntry
	index    map[string]int // used below sideHashThreshold
	sideHash *swiss.Map[string, int]

	transitions      map[transitionKey]*Structure
	inTransitionMode bool
}

// EmptyStructure is the Structure every freshly allocated Object
// without own properties starts from; it is the root of every
// transition chain, exactly as an empty map literal's hidden class is
// the root of every object literal's transition chain in the source
// engine.
func EmptyStructure() *Structure {
	return &Structure{
		id:               atomic.AddUint64(&nextStructureID, 1),
		index:            make(map[string]int),
		transitions:      make(map[transitionKey]*Structure),
		inTransitionMode: true,
	}
}

func (s *Structure) ID() uint64      { return s.id }
func (s *Structure) SlotCount() int  { return len(s.entries) }

// Lookup resolves name to its slot, consulting the side hash index
// once the structure has grown past sideHashThreshold entries.
func (s *Structure) Lookup(name string) (int, bool) {
	if s.sideHash != nil {
		return s.sideHash.Get(name)
	}
	slot, ok := s.index[name]
	return slot, ok
}

func (s *Structure) Attrs(slot int) PropertyAttrs { return s.entries[slot].attrs }
func (s *Structure) NameAt(slot int) string       { return s.entries[slot].name }

// EntryAt exposes the full row, used by [[OwnKeys]]/enumerate and by
// Object.Get/Set to find a native accessor without a second lookup.
func (s *Structure) EntryAt(slot int) (name string, attrs PropertyAttrs, native *NativeAccessor) {
	e := s.entries[slot]
	return e.name, e.attrs, e.native
}

// AddNative installs a native accessor entry, following/creating a
// transition edge the same way Add does for plain properties.
func (s *Structure) AddNative(name string, attrs PropertyAttrs, native *NativeAccessor) *Structure {
	attrs |= AttrNativeAccessor | AttrAccessor
	next := s.Add(name, attrs)
	next.entries[len(next.entries)-1].native = native
	return next
}

// Add returns the Structure reached by appending (name, attrs),
// following an existing transition edge when one is already present
// rather than allocating a duplicate Structure for an identical
// layout (spec.md §4.2).
func (s *Structure) Add(name string, attrs PropertyAttrs) *Structure {
	if !s.inTransitionMode {
		return s.addFastAccess(name, attrs)
	}

	key := transitionKey{name: name, attrs: attrs}
	if next, ok := s.transitions[key]; ok {
		return next
	}

	next := &Structure{
		id:               atomic.AddUint64(&nextStructureID, 1),
		entries:          append(append([]propEntry{}, s.entries...), propEntry{name: name, attrs: attrs, slot: len(s.entries)}),
		transitions:      make(map[transitionKey]*Structure),
		inTransitionMode: true,
	}
	next.rebuildIndex()
	s.transitions[key] = next
	return next
}

func (s *Structure) addFastAccess(name string, attrs PropertyAttrs) *Structure {
	slot := len(s.entries)
	s.entries = append(s.entries, propEntry{name: name, attrs: attrs, slot: slot})
	s.setIndex(name, slot)
	return s
}

func (s *Structure) setIndex(name string, slot int) {
	if s.sideHash != nil {
		s.sideHash.Put(name, slot)
		return
	}
	s.index[name] = slot
	if len(s.entries) > sideHashThreshold {
		s.promoteToSideHash()
	}
}

func (s *Structure) promoteToSideHash() {
	m := swiss.NewMap[string, int](uint32(len(s.entries) * 2))
	for k, v := range s.index {
		m.Put(k, v)
	}
	s.sideHash = m
	s.index = nil
}

func (s *Structure) rebuildIndex() {
	s.index = make(map[string]int, len(s.entries))
	for _, e := range s.entries {
		s.index[e.name] = e.slot
	}
	if len(s.entries) > sideHashThreshold {
		s.promoteToSideHash()
	}
}

// Remove always produces a non-shared, fast-access Structure: letting
// removal participate in the transition table would make the
// transition graph explode combinatorially (spec.md §4.2).
func (s *Structure) Remove(name string) *Structure {
	next := s.cloneFastAccess()
	slot, ok := next.Lookup(name)
	if !ok {
		return next
	}
	entries := make([]propEntry, 0, len(next.entries)-1)
	for _, e := range next.entries {
		if e.slot == slot {
			continue
		}
		entries = append(entries, e)
	}
	for i := range entries {
		entries[i].slot = i
	}
	next.entries = entries
	next.sideHash = nil
	next.rebuildIndex()
	return next
}

// ChangeAttributes likewise always produces a fast-access Structure.
func (s *Structure) ChangeAttributes(slot int, attrs PropertyAttrs) *Structure {
	next := s.cloneFastAccess()
	next.entries[slot].attrs = attrs
	return next
}

func (s *Structure) cloneFastAccess() *Structure {
	next := &Structure{
		id:               atomic.AddUint64(&nextStructureID, 1),
		entries:          append([]propEntry{}, s.entries...),
		inTransitionMode: false,
	}
	next.rebuildIndex()
	return next
}

// ConvertToFastAccess leaves transition mode, unlocking in-place edits
// of a Structure known to be a singleton. It has no callers.
func (s *Structure) ConvertToFastAccess() *Structure {
	if !s.inTransitionMode {
		return s
	}
	s.inTransitionMode = false
	s.transitions = nil
	return s
}

func (s *Structure) InTransitionMode() bool { return s.inTransitionMode }
