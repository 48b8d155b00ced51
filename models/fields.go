package models

// Fields is an insertion-ordered mapping from key to Value.
// Setting an existing key replaces its value and keeps its original position.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]Value
}

// NewFields returns an empty Fields with room for n keys.
func NewFields(n int) *Fields {
	return &Fields{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores v under key, overwriting any earlier value.
func (f *Fields) Set(key string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Range calls fn for every entry in insertion order until fn returns false.
func (f *Fields) Range(fn func(key string, v Value) bool) {
	if f == nil {
		return
	}
	for _, k := range f.keys {
		if !fn(k, f.values[k]) {
			return
		}
	}
}

// Map returns the entries as a plain map.
func (f *Fields) Map() map[string]Value {
	out := make(map[string]Value, f.Len())
	f.Range(func(k string, v Value) bool {
		out[k] = v
		return true
	})
	return out
}
