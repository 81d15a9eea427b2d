package value

import "strings"

type tableEntry struct {
	key   string
	value Value
}

// Table is an insertion-ordered mapping from string keys to Values. It
// backs module-variable tables, instance field tables, and the `table`
// literal. Order is preserved across Set of an existing key.
type Table struct {
	Base
	entries []tableEntry
	index   map[string]int
}

// NewTable builds an empty Table.
func NewTable() *Table {
	return &Table{Base: newBase("Table"), index: make(map[string]int)}
}

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Get(key string) (Value, bool) {
	i, ok := t.index[key]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].value, true
}

// Set inserts or overwrites key with v, preserving insertion order.
func (t *Table) Set(key string, v Value) {
	if i, ok := t.index[key]; ok {
		t.entries[i].value.Release()
		t.entries[i].value = v
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, tableEntry{key: key, value: v})
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Keys returns keys in insertion order. The caller must not mutate it.
func (t *Table) Keys() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.key
	}
	return out
}

// Clone performs a shallow copy: same keys, cloned Values, fresh table
// identity. Used for Instance field-default copying on construction.
func (t *Table) Clone() *Table {
	out := NewTable()
	for _, e := range t.entries {
		out.Set(e.key, e.value.Clone())
	}
	return out
}

func (t *Table) Finalize() {
	for _, e := range t.entries {
		e.value.Release()
	}
	t.entries = nil
	t.index = nil
}

func (t *Table) Display() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteString(": ")
		b.WriteString(e.value.Debug())
	}
	b.WriteByte('}')
	return b.String()
}

func (t *Table) Debug() string { return t.Display() }

func (t *Table) NamedField(name string) (Value, error) {
	v, ok := t.Get(name)
	if !ok {
		return Value{}, NewError(UnboundName, "no field named `%s`", name)
	}
	return v.Clone(), nil
}

func (t *Table) SetNamedField(name string, v Value) error {
	t.Set(name, v)
	return nil
}

func (t *Table) KeyedField(key Value) (Value, error) {
	o, ok := key.ToObject()
	if !ok {
		return Value{}, &Error{Kind: BadKey, Message: "table key must be a string, got `" + key.TypeName() + "`"}
	}
	s, ok := o.(*String)
	if !ok {
		return Value{}, &Error{Kind: BadKey, Message: "table key must be a string, got `" + key.TypeName() + "`"}
	}
	return t.NamedField(s.Text())
}

func (t *Table) SetKeyedField(key Value, v Value) error {
	o, ok := key.ToObject()
	if !ok {
		return &Error{Kind: BadKey, Message: "table key must be a string, got `" + key.TypeName() + "`"}
	}
	s, ok := o.(*String)
	if !ok {
		return &Error{Kind: BadKey, Message: "table key must be a string, got `" + key.TypeName() + "`"}
	}
	return t.SetNamedField(s.Text(), v)
}

func (t *Table) Contains(needle Value) (bool, error) {
	o, ok := needle.ToObject()
	if !ok {
		return false, nil
	}
	s, ok := o.(*String)
	if !ok {
		return false, nil
	}
	return t.Has(s.Text()), nil
}
