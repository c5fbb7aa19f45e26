package xdom

import (
	"fmt"

	"github.com/reoring/xdom/xmltree"
)

// MergeStrategy customizes how a slot of a merged element combines its
// delegates. Nil functions fall back to the default behaviour.
type MergeStrategy struct {
	// Collection receives each delegate's items, in delegate order.
	Collection func(d *Descriptor, perDelegate [][]Element) []Element
	// Text picks the value of a value slot from the delegates.
	Text func(d *Descriptor, delegates []Element) (string, bool)
}

// mergedElement presents several same-contract elements as one. Reads fan
// out over the delegates; writes always land on the first (primary) one.
type mergedElement struct {
	contract  *Contract
	delegates []Element
	parent    *mergedElement
	desc      *Descriptor
}

// MergeModels combines delegates sharing contract c into one virtual
// element. Nil delegates are dropped; a single delegate is returned as is.
func MergeModels(c *Contract, delegates ...Element) (Element, error) {
	ds := make([]Element, 0, len(delegates))
	for _, d := range delegates {
		if d == nil {
			continue
		}
		if c != nil && !d.Contract().IsA(c) {
			return nil, Issues{Issue{
				Path:    PathOf(d),
				Code:    CodeInvalidContract,
				Message: fmt.Sprintf("cannot merge %s into %s", d.Contract(), c),
			}}
		}
		ds = append(ds, d)
	}
	switch len(ds) {
	case 0:
		return nil, nil
	case 1:
		return ds[0], nil
	}
	if c == nil {
		c = ds[0].Contract()
	}
	return &mergedElement{contract: c, delegates: ds}, nil
}

// Merge is the typed form of MergeModels.
func Merge[C any](items ...C) (C, error) {
	els := make([]Element, 0, len(items))
	var c *Contract
	for _, it := range items {
		el := ElementOf(any(it))
		if el == nil {
			continue
		}
		if c == nil {
			c = el.Contract()
		}
		els = append(els, el)
	}
	var zero C
	m, err := MergeModels(c, els...)
	if err != nil || m == nil {
		return zero, err
	}
	return As[C](m), nil
}

// Delegates returns the elements behind a merged element, or el itself.
func Delegates(el Element) []Element {
	if m, ok := el.(*mergedElement); ok {
		return append([]Element(nil), m.delegates...)
	}
	if el == nil {
		return nil
	}
	return []Element{el}
}

func (m *mergedElement) sealed() {}

func (m *mergedElement) primary() Element { return m.delegates[0] }

// Contract returns the primary's (possibly more specific) contract so typed
// binding picks the same variant as the primary.
func (m *mergedElement) Contract() *Contract {
	if c := m.primary().Contract(); c != nil {
		return c
	}
	return m.contract
}

func (m *mergedElement) File() *File             { return m.primary().File() }
func (m *mergedElement) Descriptor() *Descriptor { return m.desc }
func (m *mergedElement) NamespaceKey() string    { return m.primary().NamespaceKey() }

func (m *mergedElement) Parent() Element {
	if m.parent == nil {
		return nil
	}
	return m.parent
}

// State is Existing when any delegate exists.
func (m *mergedElement) State() State {
	st := Invalidated
	for _, d := range m.delegates {
		switch d.State() {
		case Existing:
			return Existing
		case Nonexistent:
			st = Nonexistent
		}
	}
	return st
}

func (m *mergedElement) Exists() bool { return m.State() == Existing }

func (m *mergedElement) XMLName() xmltree.Name {
	for _, d := range m.delegates {
		if d.Exists() {
			return d.XMLName()
		}
	}
	return m.primary().XMLName()
}

func (m *mergedElement) String() string { return "merged" + PathOf(m.primary()) }

func (m *mergedElement) Accept(v Visitor) { v.Visit(m) }

func (m *mergedElement) AcceptChildren(v Visitor) {
	if !m.Exists() {
		return
	}
	for _, d := range m.Contract().slots {
		if d.Contract == nil {
			continue
		}
		switch d.Kind {
		case KindFixed:
			if c := m.Fixed(d); c != nil && c.Exists() {
				v.Visit(c)
			}
		case KindCollection:
			for _, c := range m.Collection(d) {
				v.Visit(c)
			}
		}
	}
}

func (m *mergedElement) Ensure(w *WriteAccess)   { m.primary().Ensure(w) }
func (m *mergedElement) Undefine(w *WriteAccess) { m.primary().Undefine(w) }

// delegateSlot maps d onto a delegate's own contract, which may be a
// different variant declaring a same-named field.
func delegateSlot(el Element, d *Descriptor) *Descriptor {
	if c := el.Contract(); c != nil {
		if own := c.Slot(d.Field); own != nil {
			return own
		}
	}
	return d
}

// Fixed merges the delegates' children recursively, nonexistent ones
// included so the primary's child stays first.
func (m *mergedElement) Fixed(d *Descriptor) Element {
	children := make([]Element, 0, len(m.delegates))
	for _, del := range m.delegates {
		if c := del.Fixed(delegateSlot(del, d)); c != nil {
			children = append(children, c)
		}
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return &mergedElement{contract: d.Contract, delegates: children, parent: m, desc: d}
}

// Collection concatenates delegate items in delegate order unless a custom
// strategy is registered for the slot.
func (m *mergedElement) Collection(d *Descriptor) []Element {
	per := make([][]Element, len(m.delegates))
	for i, del := range m.delegates {
		per[i] = del.Collection(delegateSlot(del, d))
	}
	if s, ok := m.strategy(d); ok && s.Collection != nil {
		return s.Collection(d, per)
	}
	var out []Element
	for _, items := range per {
		out = append(out, items...)
	}
	return out
}

func (m *mergedElement) strategy(d *Descriptor) (MergeStrategy, bool) {
	if d == nil {
		return MergeStrategy{}, false
	}
	for _, c := range []*Contract{m.contract, m.Contract()} {
		if c != nil {
			if s, ok := c.MergeStrategy(d.Field); ok {
				return s, true
			}
		}
	}
	return MergeStrategy{}, false
}

// Text returns the first delegate's non-empty value.
func (m *mergedElement) Text(d *Descriptor) (string, bool) {
	if s, ok := m.strategy(d); ok && s.Text != nil {
		return s.Text(d, m.delegates)
	}
	var (
		first   string
		present bool
	)
	for _, del := range m.delegates {
		dd := d
		if d != nil {
			dd = delegateSlot(del, d)
		}
		v, ok := del.Text(dd)
		if ok && v != "" {
			return v, true
		}
		if ok && !present {
			first, present = v, true
		}
	}
	return first, present
}

func (m *mergedElement) primarySlot(d *Descriptor) *Descriptor {
	if d == nil {
		return nil
	}
	return delegateSlot(m.primary(), d)
}

func (m *mergedElement) SetText(w *WriteAccess, d *Descriptor, s string) {
	m.primary().SetText(w, m.primarySlot(d), s)
}

func (m *mergedElement) Unset(w *WriteAccess, d *Descriptor) {
	m.primary().Unset(w, m.primarySlot(d))
}

func (m *mergedElement) Add(w *WriteAccess, d *Descriptor, i int) Element {
	return m.primary().Add(w, m.primarySlot(d), i)
}

func (m *mergedElement) AddAs(w *WriteAccess, d *Descriptor, i int, c *Contract) Element {
	return m.primary().AddAs(w, m.primarySlot(d), i, c)
}
