package value

import (
	"strconv"
	"sync"
)

// String is an interned, immutable UTF-8 string object.
type String struct {
	Base
	text string
}

func newString(s string) *String {
	return &String{Base: newBase("String"), text: s}
}

func (s *String) Text() string    { return s.text }
func (s *String) Display() string { return s.text }
func (s *String) Debug() string   { return strconv.Quote(s.text) }

func (s *String) Add(rhs Value) (Value, error) {
	if o, ok := rhs.ToObject(); ok {
		if rs, ok := o.(*String); ok {
			return FromObject(newString(s.text + rs.text)), nil
		}
	}
	return Value{}, s.unsupported("+")
}

func (s *String) Cmp(rhs Value) (int, error) {
	o, ok := rhs.ToObject()
	if !ok {
		return 0, s.unsupported("compare")
	}
	rs, ok := o.(*String)
	if !ok {
		return 0, s.unsupported("compare")
	}
	switch {
	case s.text < rs.text:
		return -1, nil
	case s.text > rs.text:
		return 1, nil
	default:
		return 0, nil
	}
}

func (s *String) Contains(needle Value) (bool, error) {
	o, ok := needle.ToObject()
	if !ok {
		return false, s.unsupported("in")
	}
	ns, ok := o.(*String)
	if !ok {
		return false, s.unsupported("in")
	}
	return containsSubstring(s.text, ns.text), nil
}

func containsSubstring(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// Interner deduplicates String objects by content. It is owned per-Vm (not
// a process-wide singleton) so independent interpreters keep independent
// heaps, per spec.md §5.
type Interner struct {
	mu    sync.RWMutex
	table map[string]*String
}

// NewInterner creates an empty, ready-to-use Interner.
func NewInterner() *Interner {
	return &Interner{table: make(map[string]*String)}
}

// Intern returns the canonical *String for s, allocating and registering
// it on first use. Every returned reference is a fresh strong reference
// the caller owns (refcount is bumped under the lock so a concurrent
// Finalize racing to zero can't free the interned slot out from under us).
func (in *Interner) Intern(s string) *String {
	in.mu.RLock()
	if existing, ok := in.table[s]; ok {
		existing.retain()
		in.mu.RUnlock()
		return existing
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.table[s]; ok {
		existing.retain()
		return existing
	}
	str := newString(s)
	// The table itself holds a weak-in-spirit slot: we keep the object
	// alive as long as the table exists by holding one extra reference
	// that is never released (it lives as long as the Interner does).
	str.retain()
	in.table[s] = str
	return str
}
