package xdom

import (
	"context"
	"reflect"
)

// slotHandle is implemented by the pointer types of the handle fields a
// contract struct may declare. The binder fills them through bindSlot.
type slotHandle interface {
	slotInfo() slotInfo
	bindSlot(el Element, d *Descriptor)
}

type slotInfo struct {
	kind    Kind
	elem    reflect.Type
	element bool // contract-typed child tags rather than converted values
}

var slotHandleType = reflect.TypeOf((*slotHandle)(nil)).Elem()

// valueSlot implements the value handles (Leaf, Attr, Text).
type valueSlot[T any] struct {
	el Element
	d  *Descriptor
}

func (h *valueSlot[T]) bindSlot(el Element, d *Descriptor) { h.el, h.d = el, d }

// Descriptor returns the compiled slot.
func (h valueSlot[T]) Descriptor() *Descriptor { return h.d }

// Owner returns the element holding the value.
func (h valueSlot[T]) Owner() Element { return h.el }

// Exists reports whether the tag, attribute or text is present.
func (h valueSlot[T]) Exists() bool {
	_, ok := h.StringValue()
	return ok
}

// StringValue returns the raw text.
func (h valueSlot[T]) StringValue() (string, bool) {
	if h.el == nil {
		return "", false
	}
	return h.el.Text(h.d)
}

// Value converts the text. ok is false when the value is absent or not
// recognized by the converter.
func (h valueSlot[T]) Value() (T, bool) {
	v, ok, _ := h.convert(context.Background())
	return v, ok
}

// Get returns the value or the zero value.
func (h valueSlot[T]) Get() T {
	v, _ := h.Value()
	return v
}

// Resolve converts the text and reports unrecognized or unresolved values
// as Issues. An absent or empty value is not an error. A cancelled ctx
// during a resolution walk yields an error wrapping ErrComputationAborted.
func (h valueSlot[T]) Resolve(ctx context.Context) (T, error) {
	v, ok, cc := h.convert(ctx)
	if cc == nil || ok {
		return v, nil
	}
	if err := cc.Err(); err != nil {
		return v, err
	}
	text, _ := h.StringValue()
	if text == "" {
		return v, nil
	}
	code := CodeUnrecognizedValue
	if h.d.conv.Resolving() {
		code = CodeUnresolvedReference
	}
	return v, Issues{Issue{
		Path:    PathOf(h.el) + "/" + h.d.String(),
		Code:    code,
		Message: h.d.conv.ErrorMessage(text, cc),
		Params:  map[string]any{"value": text},
	}}
}

func (h valueSlot[T]) convert(ctx context.Context) (T, bool, *ConvertContext) {
	var zero T
	text, ok := h.StringValue()
	if !ok {
		return zero, false, nil
	}
	cc := newConvertContext(ctx, h.el)
	v, ok := h.d.conv.FromString(text, cc)
	if !ok {
		return zero, false, cc
	}
	tv, ok := v.(T)
	return tv, ok, cc
}

// Variants lists the values a resolving converter accepts in the current
// scope; nil for plain converters.
func (h valueSlot[T]) Variants(ctx context.Context) ([]T, error) {
	if h.el == nil || !h.d.conv.Resolving() {
		return nil, nil
	}
	cc := newConvertContext(ctx, h.el)
	raw := h.d.conv.Variants(cc)
	if err := cc.Err(); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		if tv, ok := v.(T); ok {
			out = append(out, tv)
		}
	}
	return out, nil
}

// Set writes v. A value without textual form deletes the slot.
func (h valueSlot[T]) Set(w *WriteAccess, v T) {
	s, ok := h.d.conv.ToString(v, newConvertContext(w.ctxOrNil(), h.el))
	if !ok {
		h.el.Unset(w, h.d)
		return
	}
	h.el.SetText(w, h.d, s)
}

// SetString writes raw text.
func (h valueSlot[T]) SetString(w *WriteAccess, s string) { h.el.SetText(w, h.d, s) }

// Unset deletes the slot.
func (h valueSlot[T]) Unset(w *WriteAccess) { h.el.Unset(w, h.d) }

// RefersTo reports whether the value resolves to target, comparing element
// identity rather than text.
func (h valueSlot[T]) RefersTo(target Element) bool {
	return IsReferenceTo(h.el, h.d, target)
}

// Leaf is a single child tag whose text converts to T.
type Leaf[T any] struct{ valueSlot[T] }

func (*Leaf[T]) slotInfo() slotInfo {
	return slotInfo{kind: KindFixed, elem: reflect.TypeOf((*T)(nil)).Elem()}
}

// Attr is an attribute whose value converts to T.
type Attr[T any] struct{ valueSlot[T] }

func (*Attr[T]) slotInfo() slotInfo {
	return slotInfo{kind: KindAttribute, elem: reflect.TypeOf((*T)(nil)).Elem()}
}

// Text is the element's own character data converted to T.
type Text[T any] struct{ valueSlot[T] }

func (*Text[T]) slotInfo() slotInfo {
	return slotInfo{kind: KindText, elem: reflect.TypeOf((*T)(nil)).Elem()}
}

// Child is a single child tag bound to contract C.
type Child[C any] struct {
	el Element
	d  *Descriptor
}

func (*Child[C]) slotInfo() slotInfo {
	return slotInfo{kind: KindFixed, elem: reflect.TypeOf((*C)(nil)).Elem(), element: true}
}

func (h *Child[C]) bindSlot(el Element, d *Descriptor) { h.el, h.d = el, d }

// Descriptor returns the compiled slot.
func (h Child[C]) Descriptor() *Descriptor { return h.d }

// Element returns the child element (it may not exist yet).
func (h Child[C]) Element() Element {
	if h.el == nil {
		return nil
	}
	return h.el.Fixed(h.d)
}

// Get binds the child, existing or not.
func (h Child[C]) Get() C { return As[C](h.Element()) }

// Exists reports whether the child tag is present.
func (h Child[C]) Exists() bool {
	el := h.Element()
	return el != nil && el.Exists()
}

// Ensure creates the child when missing and returns it.
func (h Child[C]) Ensure(w *WriteAccess) C {
	el := h.Element()
	el.Ensure(w)
	return As[C](el)
}

// Undefine removes the child tag.
func (h Child[C]) Undefine(w *WriteAccess) {
	if el := h.Element(); el != nil {
		el.Undefine(w)
	}
}

// Children is a repeatable child tag bound to contract C.
type Children[C any] struct {
	el Element
	d  *Descriptor
}

func (*Children[C]) slotInfo() slotInfo {
	return slotInfo{kind: KindCollection, elem: reflect.TypeOf((*C)(nil)).Elem(), element: true}
}

func (h *Children[C]) bindSlot(el Element, d *Descriptor) { h.el, h.d = el, d }

// Descriptor returns the compiled slot.
func (h Children[C]) Descriptor() *Descriptor { return h.d }

// Elements returns the items in document order.
func (h Children[C]) Elements() []Element {
	if h.el == nil {
		return nil
	}
	return h.el.Collection(h.d)
}

// Get binds every item, in document order.
func (h Children[C]) Get() []C {
	els := h.Elements()
	out := make([]C, len(els))
	for i, el := range els {
		out[i] = As[C](el)
	}
	return out
}

// Len returns the number of items.
func (h Children[C]) Len() int { return len(h.Elements()) }

// At returns item i.
func (h Children[C]) At(i int) (C, bool) {
	els := h.Elements()
	if i < 0 || i >= len(els) {
		var zero C
		return zero, false
	}
	return As[C](els[i]), true
}

// Add inserts a new item at position i (i<0 or i>Len appends) and shifts
// later items.
func (h Children[C]) Add(w *WriteAccess, i int) C { return As[C](h.el.Add(w, h.d, i)) }

// Append adds a new last item.
func (h Children[C]) Append(w *WriteAccess) C { return h.Add(w, -1) }

// AddAs inserts a specific variant of a polymorphic collection.
func (h Children[C]) AddAs(w *WriteAccess, i int, variant *Contract) C {
	return As[C](h.el.AddAs(w, h.d, i, variant))
}

// Values is a repeatable child tag whose items' text converts to T.
type Values[T any] struct {
	el Element
	d  *Descriptor
}

func (*Values[T]) slotInfo() slotInfo {
	return slotInfo{kind: KindCollection, elem: reflect.TypeOf((*T)(nil)).Elem()}
}

func (h *Values[T]) bindSlot(el Element, d *Descriptor) { h.el, h.d = el, d }

// Descriptor returns the compiled slot.
func (h Values[T]) Descriptor() *Descriptor { return h.d }

// Elements returns the item elements in document order.
func (h Values[T]) Elements() []Element {
	if h.el == nil {
		return nil
	}
	return h.el.Collection(h.d)
}

// Strings returns the raw item texts.
func (h Values[T]) Strings() []string {
	els := h.Elements()
	out := make([]string, 0, len(els))
	for _, el := range els {
		s, _ := el.Text(nil)
		out = append(out, s)
	}
	return out
}

// Get converts every item, skipping unrecognized ones.
func (h Values[T]) Get() []T {
	var out []T
	for _, el := range h.Elements() {
		s, _ := el.Text(nil)
		v, ok := h.d.conv.FromString(s, newConvertContext(context.Background(), el))
		if !ok {
			continue
		}
		if tv, ok := v.(T); ok {
			out = append(out, tv)
		}
	}
	return out
}

// Len returns the number of items.
func (h Values[T]) Len() int { return len(h.Elements()) }

// Add inserts a new item holding v at position i.
func (h Values[T]) Add(w *WriteAccess, i int, v T) Element {
	s, ok := h.d.conv.ToString(v, newConvertContext(w.ctxOrNil(), h.el))
	el := h.el.Add(w, h.d, i)
	if ok {
		el.SetText(w, nil, s)
	}
	return el
}

// Append adds v as the last item.
func (h Values[T]) Append(w *WriteAccess, v T) Element { return h.Add(w, -1, v) }

func (w *WriteAccess) ctxOrNil() context.Context {
	if w == nil {
		return nil
	}
	return w.ctx
}
