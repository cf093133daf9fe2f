package vela

// ObjectClass is Object's own type tag (spec.md §9: "A faithful
// redesign encodes the type as a small integer tag in the header
// word"). Every HeapObject subtype PointerValue.h lists under Object
// (FunctionObject, ArrayObject, ...) is represented here as one Go
// struct carrying an ObjectClass plus a class-specific Ext payload,
// rather than as a Go type hierarchy -- switch on Class (or a type
// assertion on Ext) wherever the original would have used a vtable.
type ObjectClass uint8

const (
	ClassPlain ObjectClass = iota
	ClassFunction
	ClassArray
	ClassString
	ClassNumber
	ClassBoolean
	ClassDate
	ClassRegExp
	ClassError
	ClassPromise
	ClassArrayBuffer
	ClassArrayBufferView
	ClassMap
	ClassSet
	ClassWeakMap
	ClassWeakSet
	ClassIterator
	ClassGlobal
)

func (c ObjectClass) String() string {
	names := [...]string{
		"Object", "Function", "Array", "String", "Number", "Boolean",
		"Date", "RegExp", "Error", "Promise", "ArrayBuffer",
		"ArrayBufferView", "Map", "Set", "WeakMap", "WeakSet",
		"Iterator", "global",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "Object"
}

// ObjectRareData holds the fields most objects never touch, referenced
// from Object only when non-nil. The teacher's C++ ancestor packs
// this behind a sentinel word sharing the prototype slot to save a
// machine word per object; Go gives every struct field its own slot
// regardless, so here the saving is simply "most objects carry a nil
// pointer, not an allocated record" -- the same saved-word intent,
// the idiomatic Go mechanism.
type ObjectRareData struct {
	Extensible                 bool
	IsPrototypeOfSomething     bool
	FastModeArray              bool
	ExtraData                  any
	InternalSlot               Value
	NonWritableLastIndex       bool
	ShouldUpdateEnumerateCache bool
}

// Object is the tuple (structure, values, prototype, rare_data?) of
// spec.md §3. `proto` always holds the prototype (an Object, Null, or
// Undefined when none was given), whether or not rare data exists;
// rare data is held in `rare`, never inline in `proto` -- see the
// comment on ObjectRareData about why this implementation skips the
// in-band sentinel-word trick.
type Object struct {
	structure *Structure
	values    []Value
	proto     Value
	rare      *ObjectRareData
	Class     ObjectClass
	Ext       any
}

func (*Object) heapKind() HeapKind { return HeapObject }

func NewObject(proto Value) *Object {
	return &Object{structure: EmptyStructure(), proto: proto}
}

func NewObjectWithClass(proto Value, class ObjectClass, ext any) *Object {
	o := NewObject(proto)
	o.Class = class
	o.Ext = ext
	return o
}

func (o *Object) rareData() *ObjectRareData {
	if o.rare == nil {
		o.rare = &ObjectRareData{Extensible: true}
	}
	return o.rare
}

func (o *Object) Extensible() bool {
	if o.rare == nil {
		return true
	}
	return o.rare.Extensible
}

func (o *Object) SetExtensible(v bool) {
	if o.rare == nil && v {
		return
	}
	o.rareData().Extensible = v
}

func (o *Object) Structure() *Structure { return o.structure }

// PropertyDescriptor is the user-facing, ES5 §8.10-shaped descriptor:
// one of three disjoint kinds (data / accessor / generic), recovered
// from or destined for the compact in-structure representation.
type PropertyDescriptor struct {
	HasValue        bool
	Value           Value
	HasWritable     bool
	Writable        bool
	HasGet          bool
	Get             Value
	HasSet          bool
	Set             Value
	HasEnumerable   bool
	Enumerable      bool
	HasConfigurable bool
	Configurable    bool
}

func (d PropertyDescriptor) IsAccessor() bool { return d.HasGet || d.HasSet }
func (d PropertyDescriptor) IsData() bool     { return d.HasValue || d.HasWritable }
func (d PropertyDescriptor) IsGeneric() bool  { return !d.IsAccessor() && !d.IsData() }

// ValidateDescriptor enforces that a single descriptor may not mix
// data and accessor fields (spec.md §3: "It is a structural error for
// a single descriptor to mix data and accessor fields").
func ValidateDescriptor(d PropertyDescriptor) *Error {
	if d.IsData() && d.IsAccessor() {
		return newTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}
	return nil
}

func dataDescriptor(value Value, attrs PropertyAttrs) PropertyDescriptor {
	return PropertyDescriptor{
		HasValue: true, Value: value,
		HasWritable: true, Writable: attrs.Has(AttrWritable),
		HasEnumerable: true, Enumerable: attrs.Has(AttrEnumerable),
		HasConfigurable: true, Configurable: attrs.Has(AttrConfigurable),
	}
}

func accessorDescriptor(gs *GetterSetter, attrs PropertyAttrs) PropertyDescriptor {
	return PropertyDescriptor{
		HasGet: true, Get: gs.Get,
		HasSet: true, Set: gs.Set,
		HasEnumerable: true, Enumerable: attrs.Has(AttrEnumerable),
		HasConfigurable: true, Configurable: attrs.Has(AttrConfigurable),
	}
}

// GetOwnProperty implements [[GetOwnProperty]] (spec.md §4.3),
// reconstructing a user-facing PropertyDescriptor from the compact
// in-structure slot.
func (o *Object) GetOwnProperty(state *ExecutionState, name string) (PropertyDescriptor, bool) {
	slot, ok := o.structure.Lookup(name)
	if !ok {
		return PropertyDescriptor{}, false
	}
	_, attrs, native := o.structure.EntryAt(slot)
	if native != nil {
		v, err := native.Get(state, HeapValue(o))
		if err != nil {
			return PropertyDescriptor{}, false
		}
		return dataDescriptor(v, attrs), true
	}
	if attrs.Has(AttrAccessor) {
		gs := o.values[slot].AsHeapOrNil()
		if gs, ok := gs.(*GetterSetter); ok {
			return accessorDescriptor(gs, attrs), true
		}
	}
	return dataDescriptor(o.values[slot], attrs), true
}

// AsHeapOrNil returns the heap payload for a heap Value, or nil for
// any other tag -- a convenience used while picking apart accessor
// slots without risking a failed type assertion panic.
func (v Value) AsHeapOrNil() HeapPointer {
	if v.tag != TagHeapPointer {
		return nil
	}
	return v.ptr
}

// HasProperty walks the prototype chain, as `in` and [[HasProperty]]
// do (ES5 §8.12.6), without materializing a descriptor.
func (o *Object) HasProperty(state *ExecutionState, name string) bool {
	cur := o
	for cur != nil {
		if _, ok := cur.structure.Lookup(name); ok {
			return true
		}
		cur = protoObject(cur.proto)
	}
	return false
}

func protoObject(v Value) *Object {
	if v.IsObject() {
		return v.AsObject()
	}
	return nil
}

// Get implements [[Get]] (spec.md §4.3): walk the prototype chain
// until found or exhausted, invoking an accessor's getter with
// `receiver` as `this`.
func (o *Object) Get(state *ExecutionState, name string, receiver Value) (Value, *Error) {
	cur := o
	for cur != nil {
		slot, ok := cur.structure.Lookup(name)
		if ok {
			_, attrs, native := cur.structure.EntryAt(slot)
			if native != nil {
				return native.Get(state, receiver)
			}
			if attrs.Has(AttrAccessor) {
				gs, _ := cur.values[slot].AsHeapOrNil().(*GetterSetter)
				if gs == nil || gs.Get.IsUndefined() {
					return Undefined, nil
				}
				return state.vm.Call(state, gs.Get, receiver, nil)
			}
			return cur.values[slot], nil
		}
		cur = protoObject(cur.proto)
	}
	return Undefined, nil
}

// GetIndexed is the fast path for integer-indexed access that
// bypasses name hashing (spec.md §4.3): a ClassArray object with
// dense storage reads directly from its backing slice (array.go);
// every other case falls back to string-keyed lookup.
func (o *Object) GetIndexed(state *ExecutionState, i int, receiver Value) (Value, *Error) {
	if o.Class == ClassArray {
		if v, ok := o.arrayGetIndexed(state, i); ok {
			return v, nil
		}
	}
	return o.Get(state, indexName(i), receiver)
}

// Set implements [[Set]] (spec.md §4.3): respects inherited
// accessors and non-writable inherited data properties before falling
// through to an ordinary [[DefineOwnProperty]] on the receiver.
func (o *Object) Set(state *ExecutionState, name string, value, receiver Value) *Error {
	cur := o
	for cur != nil {
		slot, ok := cur.structure.Lookup(name)
		if ok {
			_, attrs, native := cur.structure.EntryAt(slot)
			if native != nil {
				return native.Set(state, receiver, value)
			}
			if attrs.Has(AttrAccessor) {
				gs, _ := cur.values[slot].AsHeapOrNil().(*GetterSetter)
				if gs == nil || gs.Set.IsUndefined() {
					if state.StrictMode {
						return state.Throw(newTypeError("Cannot set property %s of which has only a getter", name))
					}
					return nil
				}
				_, err := state.vm.Call(state, gs.Set, receiver, []Value{value})
				return err
			}
			if cur == o {
				if !attrs.Has(AttrWritable) {
					if state.StrictMode {
						return state.Throw(newTypeError("Cannot assign to read only property '%s'", name))
					}
					return nil
				}
				o.values[slot] = value
				return nil
			}
			if !attrs.Has(AttrWritable) {
				if state.StrictMode {
					return state.Throw(newTypeError("Cannot assign to read only property '%s'", name))
				}
				return nil
			}
			break
		}
		cur = protoObject(cur.proto)
	}
	ok, err := o.DefineOwnProperty(state, name, dataDescriptor(value, DefaultDataAttrs), false)
	if err != nil {
		return err
	}
	if !ok && state.StrictMode {
		return state.Throw(newTypeError("Cannot add property %s, object is not extensible", name))
	}
	return nil
}

// SetIndexed mirrors GetIndexed's dense-array fast path: writing
// in-range or adjacent to a dense array's current length stays
// inside the backing slice and never touches the Structure.
func (o *Object) SetIndexed(state *ExecutionState, i int, value, receiver Value) *Error {
	if o.Class == ClassArray && o == receiver.AsHeapOrNil() {
		ext, ok := o.Ext.(*ArrayExt)
		if ok && !ext.sparse && i >= 0 {
			o.arraySetIndexed(i, value)
			return nil
		}
	}
	return o.Set(state, indexName(i), value, receiver)
}

// DefineOwnProperty implements [[DefineOwnProperty]] per ES5 §8.12.9
// verbatim (spec.md §4.3 "Algorithm detail"): merge against any
// existing descriptor, rejecting attribute changes a non-configurable
// property forbids, then commit by transitioning the Structure and
// writing the slot.
func (o *Object) DefineOwnProperty(state *ExecutionState, name string, desc PropertyDescriptor, throwOnFailure bool) (bool, *Error) {
	if err := ValidateDescriptor(desc); err != nil {
		return false, state.Throw(err)
	}

	existing, ok := o.GetOwnProperty(state, name)
	if !ok {
		if !o.Extensible() {
			return o.reject(state, throwOnFailure, "Cannot define property %s, object is not extensible", name)
		}
		o.appendProperty(name, desc)
		return true, nil
	}

	if !existing.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
		}
		if desc.HasEnumerable && desc.Enumerable != existing.Enumerable {
			return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
		}
		if existing.IsData() != desc.IsData() && (desc.IsData() || desc.IsAccessor()) {
			return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
		}
		if existing.IsData() && desc.IsData() {
			if !existing.Writable {
				if desc.HasWritable && desc.Writable {
					return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
				}
				if desc.HasValue && !strictEqualsRaw(desc.Value, existing.Value) {
					return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
				}
			}
		}
		if existing.IsAccessor() && desc.IsAccessor() {
			if desc.HasGet && !strictEqualsRaw(desc.Get, existing.Get) {
				return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
			}
			if desc.HasSet && !strictEqualsRaw(desc.Set, existing.Set) {
				return o.reject(state, throwOnFailure, "Cannot redefine property: %s", name)
			}
		}
	}

	merged := mergeDescriptor(existing, desc)
	o.writeProperty(name, merged)
	return true, nil
}

func (o *Object) reject(state *ExecutionState, throwOnFailure bool, format string, args ...any) (bool, *Error) {
	if throwOnFailure {
		return false, state.Throw(newTypeError(format, args...))
	}
	return false, nil
}

func mergeDescriptor(existing, incoming PropertyDescriptor) PropertyDescriptor {
	merged := existing
	if incoming.HasEnumerable {
		merged.Enumerable, merged.HasEnumerable = incoming.Enumerable, true
	}
	if incoming.HasConfigurable {
		merged.Configurable, merged.HasConfigurable = incoming.Configurable, true
	}
	switch {
	case incoming.IsAccessor():
		merged = PropertyDescriptor{
			HasGet: true, Get: pick(incoming.HasGet, incoming.Get, existing.Get),
			HasSet: true, Set: pick(incoming.HasSet, incoming.Set, existing.Set),
			HasEnumerable: true, Enumerable: merged.Enumerable,
			HasConfigurable: true, Configurable: merged.Configurable,
		}
	case incoming.IsData() || existing.IsData():
		merged = PropertyDescriptor{
			HasValue: true, Value: pick(incoming.HasValue, incoming.Value, existing.Value),
			HasWritable: true, Writable: pickBool(incoming.HasWritable, incoming.Writable, existing.Writable),
			HasEnumerable: true, Enumerable: merged.Enumerable,
			HasConfigurable: true, Configurable: merged.Configurable,
		}
	}
	return merged
}

func pick(has bool, v, fallback Value) Value {
	if has {
		return v
	}
	return fallback
}

func pickBool(has bool, v, fallback bool) bool {
	if has {
		return v
	}
	return fallback
}

func attrsFromDescriptor(d PropertyDescriptor) PropertyAttrs {
	var a PropertyAttrs
	if d.IsAccessor() {
		a |= AttrAccessor
	}
	if d.Writable {
		a |= AttrWritable
	}
	if d.Enumerable {
		a |= AttrEnumerable
	}
	if d.Configurable {
		a |= AttrConfigurable
	}
	return a
}

func (o *Object) appendProperty(name string, d PropertyDescriptor) {
	attrs := attrsFromDescriptor(d)
	o.structure = o.structure.Add(name, attrs)
	slot, _ := o.structure.Lookup(name)
	o.growValues(slot)
	o.values[slot] = slotValue(d)
}

func (o *Object) writeProperty(name string, d PropertyDescriptor) {
	slot, ok := o.structure.Lookup(name)
	attrs := attrsFromDescriptor(d)
	if !ok {
		o.appendProperty(name, d)
		return
	}
	if o.structure.Attrs(slot) != attrs {
		o.structure = o.structure.ChangeAttributes(slot, attrs)
	}
	o.values[slot] = slotValue(d)
}

func slotValue(d PropertyDescriptor) Value {
	if d.IsAccessor() {
		return HeapValue(NewGetterSetter(d.Get, d.Set))
	}
	return d.Value
}

// growValues keeps the invariant values.len() == structure.slot_count()
// (spec.md §3) after every successful DefineOwnProperty/Delete.
func (o *Object) growValues(slot int) {
	for len(o.values) <= slot {
		o.values = append(o.values, Undefined)
	}
}

// Delete implements [[Delete]] (spec.md §4.3): false if the property
// exists and is non-configurable.
func (o *Object) Delete(state *ExecutionState, name string, throwOnFailure bool) (bool, *Error) {
	slot, ok := o.structure.Lookup(name)
	if !ok {
		return true, nil
	}
	if !o.structure.Attrs(slot).Has(AttrConfigurable) {
		if throwOnFailure {
			return false, state.Throw(newTypeError("Cannot delete property '%s'", name))
		}
		return false, nil
	}
	o.structure = o.structure.Remove(name)
	newValues := make([]Value, 0, len(o.values))
	for i, v := range o.values {
		if i == slot {
			continue
		}
		newValues = append(newValues, v)
	}
	o.values = newValues
	return true, nil
}

// OwnKeys implements [[OwnKeys]] with ES6 key ordering: integer
// indices ascending, then string keys in insertion order (spec.md
// §4.3). Symbol ordering is not modeled: vela has no Symbol
// primitive.
func (o *Object) OwnKeys() []string {
	var ints []int
	var strs []string
	for _, e := range o.structure.entries {
		if idx, ok := arrayIndexOf(e.name); ok {
			ints = append(ints, idx)
			continue
		}
		strs = append(strs, e.name)
	}
	sortInts(ints)
	keys := make([]string, 0, len(ints)+len(strs))
	for _, i := range ints {
		keys = append(keys, indexName(i))
	}
	keys = append(keys, strs...)
	return keys
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// Enumerate visits each own key, honoring skipNonEnumerable as
// for-in and Object.keys/entries/values need respectively.
func (o *Object) Enumerate(skipNonEnumerable bool, cb func(name string) bool) {
	for _, name := range o.OwnKeys() {
		slot, ok := o.structure.Lookup(name)
		if !ok {
			continue
		}
		if skipNonEnumerable && !o.structure.Attrs(slot).Has(AttrEnumerable) {
			continue
		}
		if !cb(name) {
			return
		}
	}
}

// GetPrototypeOf / SetPrototypeOf implement the corresponding
// internal methods (spec.md §4.3). SetPrototypeOf rejects when the
// object is non-extensible or the change would introduce a cycle.
func (o *Object) GetPrototypeOf() Value {
	if o.rare != nil {
		return o.proto // rare data never relocates the prototype pointer in this Go port
	}
	return o.proto
}

func (o *Object) SetPrototypeOf(state *ExecutionState, proto Value) (bool, *Error) {
	if !o.Extensible() {
		return false, nil
	}
	for cur := protoObject(proto); cur != nil; cur = protoObject(cur.proto) {
		if cur == o {
			return false, state.Throw(newTypeError("Cyclic __proto__ value"))
		}
	}
	o.proto = proto
	if p := protoObject(proto); p != nil {
		p.rareData().IsPrototypeOfSomething = true
	}
	return true, nil
}

// Length implements the array-like length coercion spec.md §4.3
// names generically: read "length", ToUint32 it.
func (o *Object) Length(state *ExecutionState) (uint32, *Error) {
	v, err := o.Get(state, "length", HeapValue(o))
	if err != nil {
		return 0, err
	}
	n, err := ToNumber(state, v)
	if err != nil {
		return 0, err
	}
	return ToUint32FromFloat(n), nil
}
