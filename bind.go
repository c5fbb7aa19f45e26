package xdom

import "reflect"

// binder fills a contract struct from an element. Its field table is built
// once at registration; binding only walks the table.
type binder struct {
	typ     reflect.Type
	nodeIdx int
	fields  []boundField
}

type boundField struct {
	index int
	d     *Descriptor
}

func newBinder(t reflect.Type, nodeIdx int, slots []*Descriptor) *binder {
	b := &binder{typ: t, nodeIdx: nodeIdx}
	for _, d := range slots {
		if d.fieldIndex >= 0 {
			b.fields = append(b.fields, boundField{index: d.fieldIndex, d: d})
		}
	}
	return b
}

// bind returns an addressable struct value whose handles read and write el.
func (b *binder) bind(el Element) reflect.Value {
	rv := reflect.New(b.typ).Elem()
	rv.Field(b.nodeIdx).Set(reflect.ValueOf(Node{el: el}))
	for _, f := range b.fields {
		rv.Field(f.index).Addr().Interface().(slotHandle).bindSlot(el, f.d)
	}
	return rv
}

// As binds el to contract type C. C is the registered struct type, a
// pointer to it, an interface the bound struct implements, or Element.
// A nil element or an element whose contract has no Go type yields the zero
// value unless C is Element.
func As[C any](el Element) C {
	var zero C
	if el == nil {
		return zero
	}
	if c, ok := any(el).(C); ok {
		return c
	}
	c := el.Contract()
	if c == nil || c.binder == nil {
		return zero
	}
	rv := c.binder.bind(el)
	if v, ok := rv.Interface().(C); ok {
		return v
	}
	if v, ok := rv.Addr().Interface().(C); ok {
		return v
	}
	return zero
}

// bindValue binds el to its contract's Go type, or returns el itself for
// dynamic contracts.
func bindValue(el Element) any {
	c := el.Contract()
	if c == nil || c.binder == nil {
		return el
	}
	return c.binder.bind(el).Interface()
}
