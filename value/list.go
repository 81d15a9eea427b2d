package value

import "strings"

// List is a dynamic, interior-mutable ordered sequence of Values.
type List struct {
	Base
	items []Value
}

// NewList builds a List taking ownership of items (no extra clone).
func NewList(items []Value) *List {
	return &List{Base: newBase("List"), items: items}
}

func (l *List) Len() int { return len(l.items) }

func (l *List) At(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return Value{}, false
	}
	return l.items[i], true
}

func (l *List) Push(v Value) { l.items = append(l.items, v) }

func (l *List) Set(i int, v Value) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i].Release()
	l.items[i] = v
	return true
}

func (l *List) Items() []Value { return l.items }

func (l *List) Finalize() {
	for _, v := range l.items {
		v.Release()
	}
	l.items = nil
}

func (l *List) Display() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Debug())
	}
	b.WriteByte(']')
	return b.String()
}

func (l *List) Debug() string { return l.Display() }

func (l *List) KeyedField(key Value) (Value, error) {
	idx, ok := key.ToInt()
	if !ok {
		return Value{}, &Error{Kind: BadKey, Message: "list index must be an int, got `" + key.TypeName() + "`"}
	}
	v, ok := l.At(int(idx))
	if !ok {
		return Value{}, NewError(BadKey, "list index %d out of range (len %d)", idx, l.Len())
	}
	return v.Clone(), nil
}

func (l *List) SetKeyedField(key Value, v Value) error {
	idx, ok := key.ToInt()
	if !ok {
		return &Error{Kind: BadKey, Message: "list index must be an int, got `" + key.TypeName() + "`"}
	}
	if !l.Set(int(idx), v) {
		return NewError(BadKey, "list index %d out of range (len %d)", idx, l.Len())
	}
	return nil
}

func (l *List) Contains(needle Value) (bool, error) {
	for _, v := range l.items {
		if v.Equal(needle) {
			return true, nil
		}
	}
	return false, nil
}

func (l *List) Add(rhs Value) (Value, error) {
	o, ok := rhs.ToObject()
	if !ok {
		return Value{}, l.unsupported("+")
	}
	rl, ok := o.(*List)
	if !ok {
		return Value{}, l.unsupported("+")
	}
	out := make([]Value, 0, len(l.items)+len(rl.items))
	for _, v := range l.items {
		out = append(out, v.Clone())
	}
	for _, v := range rl.items {
		out = append(out, v.Clone())
	}
	return FromObject(NewList(out)), nil
}
