package vela

import "strconv"

// arrayIndexLimit is the largest value a property name may hold and
// still be an "array index" per ES5 §15.4: an array index is a
// uint32 strictly less than 2^32 - 1.
const arrayIndexLimit = 1<<32 - 1

// arrayIndexOf reports whether name is the canonical decimal
// rendering of an array index, returning that index. "01" and "-1"
// are not array indices; "0" and "4294967294" are.
func arrayIndexOf(name string) (int, bool) {
	if name == "" || (name[0] == '0' && len(name) > 1) {
		return 0, false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(name, 10, 64)
	if err != nil || n >= arrayIndexLimit {
		return 0, false
	}
	return int(n), true
}

// indexName renders i as the canonical property-name string ES5
// §15.4 uses for array indices.
func indexName(i int) string {
	return strconv.Itoa(i)
}

// ArrayExt is the Object.Ext payload for ClassArray objects. Dense
// storage is a flat Value slice; an index that would grow it past
// denseSparseThreshold holes relative to its length demotes the
// array to sparse storage, backed by the object's ordinary named
// properties instead (spec.md §3's "[,,,] leaves true holes", §9's
// redesign note on dense-vs-sparse switching).
type ArrayExt struct {
	dense  []Value // valid only while sparse == false; Empty Value marks a hole
	sparse bool
}

// denseSparseThreshold bounds how many holes a dense array tolerates
// before converting: beyond this ratio, a dense slice wastes more
// memory holding Empty placeholders than a sparse map of occupied
// slots would.
const denseSparseThreshold = 1024

// NewArrayObject builds an empty, dense ArrayObject with the given
// prototype (normally Array.prototype).
func NewArrayObject(proto Value) *Object {
	o := NewObjectWithClass(proto, ClassArray, &ArrayExt{dense: nil})
	o.structure = o.structure.AddNative("length", AttrWritable, arrayLengthAccessor())
	o.growValues(0)
	o.values[0] = Int32Value(0)
	return o
}

func arrayLengthAccessor() *NativeAccessor {
	return &NativeAccessor{
		Get: func(state *ExecutionState, this Value) (Value, *Error) {
			ext := arrayExtOf(this)
			if ext == nil {
				return Int32Value(0), nil
			}
			return NumberValue(float64(len(ext.dense))), nil
		},
		Set: func(state *ExecutionState, this Value, v Value) *Error {
			o := this.AsObject()
			ext := arrayExtOf(this)
			if ext == nil {
				return nil
			}
			nf, err := ToNumber(state, v)
			if err != nil {
				return err
			}
			n := ToUint32FromFloat(nf)
			if float64(n) != nf {
				return state.Throw(newRangeError("Invalid array length"))
			}
			o.setArrayLength(int(n))
			return nil
		},
	}
}

func arrayExtOf(v Value) *ArrayExt {
	if !v.IsObject() {
		return nil
	}
	ext, _ := v.AsObject().Ext.(*ArrayExt)
	return ext
}

func (o *Object) setArrayLength(n int) {
	ext := o.Ext.(*ArrayExt)
	if ext.sparse {
		// Sparse arrays only need truncation accounted for by deleting
		// any integer-named own property >= n; growth is a no-op since
		// sparse storage has no contiguous backing to resize.
		for _, name := range o.OwnKeys() {
			idx, ok := arrayIndexOf(name)
			if ok && idx >= n {
				o.structure = o.structure.Remove(name)
			}
		}
		return
	}
	if n <= len(ext.dense) {
		ext.dense = ext.dense[:n]
		return
	}
	grown := make([]Value, n)
	copy(grown, ext.dense)
	for i := len(ext.dense); i < n; i++ {
		grown[i] = EmptyVal
	}
	ext.dense = grown
}

// arrayGetIndexed is Object.GetIndexed's fast path for arrays: a dense
// in-range element reads directly from the backing slice (a hole
// reports not-found, so Object.GetIndexed falls back to Get and yields
// Undefined, per spec.md's "[,,,] leaves true holes" -- a hole reads
// as undefined but is absent from for-in/Object.keys).
func (o *Object) arrayGetIndexed(state *ExecutionState, i int) (Value, bool) {
	ext, ok := o.Ext.(*ArrayExt)
	if !ok || ext.sparse {
		return Undefined, false
	}
	if i < 0 || i >= len(ext.dense) {
		return Undefined, false
	}
	v := ext.dense[i]
	if v.IsEmpty() {
		return Undefined, false
	}
	return v, true
}

// arraySetIndexed writes an element: into the dense slice, growing it
// as needed, or, once the array is sparse (or this write would leave
// more than denseSparseThreshold holes and demotes it), as an
// ordinary named property.
func (o *Object) arraySetIndexed(i int, v Value) {
	ext := o.Ext.(*ArrayExt)
	if !ext.sparse && i-len(ext.dense) > denseSparseThreshold {
		o.demoteToSparse()
	}
	if ext.sparse {
		name := indexName(i)
		slot, ok := o.structure.Lookup(name)
		if !ok {
			o.structure = o.structure.Add(name, DefaultDataAttrs)
			slot, _ = o.structure.Lookup(name)
			o.growValues(slot)
		}
		o.values[slot] = v
		return
	}
	if i >= len(ext.dense) {
		grown := make([]Value, i+1)
		copy(grown, ext.dense)
		for j := len(ext.dense); j < i; j++ {
			grown[j] = EmptyVal
		}
		ext.dense = grown
	}
	ext.dense[i] = v
}

func (o *Object) demoteToSparse() {
	ext := o.Ext.(*ArrayExt)
	for i, v := range ext.dense {
		if v.IsEmpty() {
			continue
		}
		o.structure = o.structure.Add(indexName(i), DefaultDataAttrs)
		slot, _ := o.structure.Lookup(indexName(i))
		o.growValues(slot)
		o.values[slot] = v
	}
	ext.sparse = true
	ext.dense = nil
}

