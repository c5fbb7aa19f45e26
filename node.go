package xdom

import "github.com/reoring/xdom/xmltree"

// Node is embedded by every contract struct. It carries the bound element
// and the lifecycle operations shared by all contracts. The struct tag on
// the embedded field names the element and its namespace key:
//
//	type Library struct {
//		xdom.Node `xdom:"library,ns=lib"`
//		Books xdom.Children[Book]
//	}
type Node struct {
	el Element
}

// Bound is implemented by every contract struct through Node.
type Bound interface {
	Element() Element
}

// Element returns the bound element.
func (n Node) Element() Element { return n.el }

// Exists reports whether the element is backed by a live node.
func (n Node) Exists() bool { return n.el != nil && n.el.Exists() }

// State returns the lifecycle state.
func (n Node) State() State {
	if n.el == nil {
		return Invalidated
	}
	return n.el.State()
}

// XMLName returns the tag name.
func (n Node) XMLName() xmltree.Name {
	if n.el == nil {
		return xmltree.Name{}
	}
	return n.el.XMLName()
}

// Ensure materializes the element and its ancestors.
func (n Node) Ensure(w *WriteAccess) { n.el.Ensure(w) }

// Undefine removes the element's node. Repeated calls are no-ops.
func (n Node) Undefine(w *WriteAccess) {
	if n.el != nil {
		n.el.Undefine(w)
	}
}

// Accept visits the element.
func (n Node) Accept(v Visitor) {
	if n.el != nil {
		n.el.Accept(v)
	}
}

// Anchor captures a stable reference to the element.
func (n Node) Anchor() (Anchor, error) { return NewAnchor(n.el) }

// Path renders the element path.
func (n Node) Path() string { return PathOf(n.el) }

// ElementOf extracts the element of a bound contract value.
func ElementOf(v any) Element {
	switch t := v.(type) {
	case nil:
		return nil
	case Element:
		return t
	case Bound:
		return t.Element()
	}
	return nil
}
