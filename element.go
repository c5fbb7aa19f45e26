package xdom

import (
	"fmt"
	"strings"

	"github.com/reoring/xdom/xmltree"
)

// Element is a live view of a document region through a contract. Reads
// never fail; they report absence through ok results or empty values.
// Mutators require a *WriteAccess and materialize missing ancestors first.
//
// Element and handle reads take no token and hold no lock. Entry points
// (ReadAccess.Root, ResolutionMap, ResolveAnchor) check the token; reading
// an element after its Read or Write scope has ended is not detected and
// races with later writers. Keeping reads inside a scope is the host's job.
//
// Descriptors passed to Element methods must belong to Contract(); foreign
// descriptors make reads return nothing and writes panic.
type Element interface {
	Contract() *Contract
	State() State
	Exists() bool
	File() *File
	// Parent returns the enclosing element, nil for roots.
	Parent() Element
	// Descriptor returns the slot the element fills, nil for roots.
	Descriptor() *Descriptor
	XMLName() xmltree.Name
	NamespaceKey() string

	Accept(v Visitor)
	// AcceptChildren visits existing contract-typed children in slot order.
	AcceptChildren(v Visitor)

	// Ensure materializes the element and its ancestors.
	Ensure(w *WriteAccess)
	// Undefine removes the backing node. Calling it on an element that does
	// not exist is a no-op.
	Undefine(w *WriteAccess)

	Fixed(d *Descriptor) Element
	Collection(d *Descriptor) []Element
	// Add inserts a new item of collection d at position i; i<0 or i>len
	// appends.
	Add(w *WriteAccess, d *Descriptor, i int) Element
	// AddAs is Add for polymorphic collections, creating variant c.
	AddAs(w *WriteAccess, d *Descriptor, i int, c *Contract) Element

	// Text reads value slot d; nil reads the element's own text.
	Text(d *Descriptor) (string, bool)
	SetText(w *WriteAccess, d *Descriptor, s string)
	// Unset deletes value slot d.
	Unset(w *WriteAccess, d *Descriptor)

	sealed()
}

// Visitor receives elements from Accept and AcceptChildren.
type Visitor interface {
	Visit(el Element)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(el Element)

func (f VisitorFunc) Visit(el Element) { f(el) }

// boundElement is backed by zero or one node of its file's arena. Pinned
// elements (roots, collection items) hold their node; slot elements (fixed
// children) navigate from their parent on every access. The parent link only
// points upward.
type boundElement struct {
	file     *File
	contract *Contract
	parent   *boundElement
	desc     *Descriptor
	node     xmltree.NodeID
	pinned   bool
	nsKey    string
}

func (e *boundElement) sealed() {}

func (e *boundElement) Contract() *Contract     { return e.contract }
func (e *boundElement) File() *File             { return e.file }
func (e *boundElement) Descriptor() *Descriptor { return e.desc }
func (e *boundElement) NamespaceKey() string    { return e.nsKey }

func (e *boundElement) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// current resolves the backing node and lifecycle state.
func (e *boundElement) current() (xmltree.NodeID, State) {
	if e.file.Closed() {
		return xmltree.InvalidNode, Invalidated
	}
	if e.pinned {
		if e.file.doc.Valid(e.node) {
			return e.node, Existing
		}
		return xmltree.InvalidNode, Invalidated
	}
	pn, ps := e.parent.current()
	if ps != Existing {
		return xmltree.InvalidNode, ps
	}
	if n := e.file.findFixed(pn, e.desc, e.nsKey); n != xmltree.InvalidNode {
		return n, Existing
	}
	return xmltree.InvalidNode, Nonexistent
}

func (e *boundElement) State() State {
	_, st := e.current()
	return st
}

func (e *boundElement) Exists() bool { return e.State() == Existing }

func (e *boundElement) XMLName() xmltree.Name {
	if n, st := e.current(); st == Existing {
		return e.file.doc.Name(n)
	}
	if e.desc != nil {
		return xmltree.Name{Local: e.desc.Name}
	}
	return xmltree.Name{Local: e.file.desc.RootName()}
}

func (e *boundElement) String() string { return PathOf(e) }

func (e *boundElement) fail(op, reason string, st State) {
	violate(e.file.logger(), &StructuralViolation{Op: op, Path: PathOf(e), State: st, Reason: reason})
}

// ensure returns the backing node, creating it and its ancestors when the
// element is Nonexistent. Invalidated elements are a programming error.
func (e *boundElement) ensure(op string) xmltree.NodeID {
	n, st := e.current()
	switch st {
	case Existing:
		return n
	case Invalidated:
		e.fail(op, "element was invalidated; re-navigate before mutating", st)
	}
	pn := e.parent.ensure(op)
	n, created := e.file.ensureFixed(pn, e.parent.contract, e.parent.nsKey, e.desc)
	if created && e.desc.Contract != nil && e.desc.Contract.Abstract() {
		e.desc.Contract.chooser.Distinguish(e.file.doc, n, e.contract)
	}
	return n
}

func (e *boundElement) owns(d *Descriptor) bool {
	return d != nil && e.contract != nil && e.contract.Slot(d.Field) == d
}

func (e *boundElement) Accept(v Visitor) { v.Visit(e) }

func (e *boundElement) AcceptChildren(v Visitor) {
	if e.contract == nil || !e.Exists() {
		return
	}
	for _, d := range e.contract.slots {
		if d.Contract == nil {
			continue
		}
		switch d.Kind {
		case KindFixed:
			if c := e.Fixed(d); c.Exists() {
				v.Visit(c)
			}
		case KindCollection:
			for _, c := range e.Collection(d) {
				v.Visit(c)
			}
		}
	}
}

func (e *boundElement) Ensure(w *WriteAccess) {
	w.check("ensure")
	e.ensure("ensure")
}

func (e *boundElement) Undefine(w *WriteAccess) {
	w.check("undefine")
	n, st := e.current()
	if st != Existing {
		return
	}
	doc := e.file.doc
	if n != doc.Root() {
		doc.Remove(n)
		return
	}
	// the root cannot be detached; clear it instead
	for _, c := range doc.Children(n) {
		doc.Remove(c)
	}
	for _, a := range doc.Attrs(n) {
		doc.RemoveAttr(n, a.Name)
	}
	if doc.Text(n) != "" {
		doc.SetText(n, "")
	}
}

func (e *boundElement) Fixed(d *Descriptor) Element {
	if !e.owns(d) || d.Kind != KindFixed || d.Contract == nil {
		return nil
	}
	child := &boundElement{file: e.file, contract: d.Contract, parent: e, desc: d, node: xmltree.InvalidNode, nsKey: childKey(e.nsKey, d)}
	if d.Contract.Abstract() {
		n, _ := child.current()
		child.contract = chooseVariant(d.Contract, e.file.doc, n)
	}
	return child
}

func (e *boundElement) item(d *Descriptor, n xmltree.NodeID, key string) *boundElement {
	c := d.Contract
	if c != nil && c.Abstract() {
		c = chooseVariant(c, e.file.doc, n)
	}
	return &boundElement{file: e.file, contract: c, parent: e, desc: d, node: n, pinned: true, nsKey: key}
}

func (e *boundElement) Collection(d *Descriptor) []Element {
	if !e.owns(d) || d.Kind != KindCollection {
		return nil
	}
	pn, st := e.current()
	if st != Existing {
		return nil
	}
	key := childKey(e.nsKey, d)
	nodes := e.file.tagNodes(pn, d, key)
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = e.item(d, n, key)
	}
	return out
}

func (e *boundElement) Add(w *WriteAccess, d *Descriptor, i int) Element {
	return e.AddAs(w, d, i, nil)
}

func (e *boundElement) AddAs(w *WriteAccess, d *Descriptor, i int, c *Contract) Element {
	w.check("add")
	if !e.owns(d) || d.Kind != KindCollection {
		e.fail("add", fmt.Sprintf("%v is not a collection slot of %s", d, e.contract), e.State())
	}
	if c != nil && d.Contract != nil && !c.IsA(d.Contract) {
		e.fail("add", fmt.Sprintf("%s is not a variant of %s", c, d.Contract), e.State())
	}
	pn := e.ensure("add")
	key := childKey(e.nsKey, d)
	count := len(e.file.tagNodes(pn, d, key))
	limit := i
	if i < 0 || i > count {
		limit = count
	}
	n := e.file.insertTag(pn, e.contract, e.nsKey, d, limit)
	if d.Contract != nil && d.Contract.Abstract() {
		if c == nil {
			c = d.Contract.Variants()[0]
		}
		d.Contract.chooser.Distinguish(e.file.doc, n, c)
	}
	return e.item(d, n, key)
}

func (e *boundElement) Text(d *Descriptor) (string, bool) {
	if d == nil || (d.Kind == KindText && e.owns(d)) {
		n, st := e.current()
		if st != Existing {
			return "", false
		}
		return e.file.doc.Text(n), true
	}
	if !e.owns(d) || !d.IsValue() {
		return "", false
	}
	pn, st := e.current()
	if st != Existing {
		return "", false
	}
	switch d.Kind {
	case KindFixed:
		c := e.file.findFixed(pn, d, childKey(e.nsKey, d))
		if c == xmltree.InvalidNode {
			return "", false
		}
		return e.file.doc.Text(c), true
	case KindAttribute:
		_, v, ok := e.file.findAttr(pn, d)
		return v, ok
	}
	return "", false
}

func (e *boundElement) SetText(w *WriteAccess, d *Descriptor, s string) {
	w.check("set")
	doc := e.file.doc
	if d == nil || (d.Kind == KindText && e.owns(d)) {
		doc.SetText(e.ensure("set"), s)
		return
	}
	if !e.owns(d) || !d.IsValue() || d.Kind == KindCollection {
		e.fail("set", fmt.Sprintf("%v is not a value slot of %s", d, e.contract), e.State())
	}
	pn := e.ensure("set")
	switch d.Kind {
	case KindFixed:
		c, _ := e.file.ensureFixed(pn, e.contract, e.nsKey, d)
		doc.SetText(c, s)
	case KindAttribute:
		doc.SetAttr(pn, e.file.attrWriteName(pn, d), s)
	}
}

func (e *boundElement) Unset(w *WriteAccess, d *Descriptor) {
	w.check("unset")
	n, st := e.current()
	switch st {
	case Invalidated:
		e.fail("unset", "element was invalidated; re-navigate before mutating", st)
	case Nonexistent:
		return
	}
	doc := e.file.doc
	if d == nil || (d.Kind == KindText && e.owns(d)) {
		doc.SetText(n, "")
		return
	}
	if !e.owns(d) || !d.IsValue() || d.Kind == KindCollection {
		e.fail("unset", fmt.Sprintf("%v is not a value slot of %s", d, e.contract), st)
	}
	switch d.Kind {
	case KindFixed:
		if c := e.file.findFixed(n, d, childKey(e.nsKey, d)); c != xmltree.InvalidNode {
			doc.Remove(c)
		}
	case KindAttribute:
		if name, _, ok := e.file.findAttr(n, d); ok {
			doc.RemoveAttr(n, name)
		}
	}
}

// position returns the ordinal of a pinned item among its same-slot siblings.
func (e *boundElement) position() int {
	if !e.pinned || e.parent == nil {
		return 0
	}
	pn, st := e.parent.current()
	if st != Existing {
		return -1
	}
	for i, n := range e.file.tagNodes(pn, e.desc, e.nsKey) {
		if n == e.node {
			return i
		}
	}
	return -1
}

// RootOf returns the outermost ancestor of el.
func RootOf(el Element) Element {
	if el == nil {
		return nil
	}
	for p := el.Parent(); p != nil; p = el.Parent() {
		el = p
	}
	return el
}

// PathOf renders the structural path of el, e.g. /library/book[1]/title.
// Collection items carry their position; fixed slots carry their ordinal
// when it is not zero.
func PathOf(el Element) string {
	if el == nil {
		return ""
	}
	if m, ok := el.(*mergedElement); ok {
		return PathOf(m.delegates[0])
	}
	be, ok := el.(*boundElement)
	if !ok {
		return ""
	}
	var parts []string
	for cur := be; cur != nil; cur = cur.parent {
		if cur.desc == nil {
			parts = append(parts, cur.file.desc.RootName())
			continue
		}
		switch {
		case cur.pinned:
			parts = append(parts, fmt.Sprintf("%s[%d]", cur.desc.Name, cur.position()))
		case cur.desc.Index > 0:
			parts = append(parts, fmt.Sprintf("%s[%d]", cur.desc.Name, cur.desc.Index))
		default:
			parts = append(parts, cur.desc.Name)
		}
	}
	b := strings.Builder{}
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

// Same reports whether a and b denote the same element: the same node when
// both exist, the same slot when neither does. Merged elements compare their
// delegate lists.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ma, aMerged := a.(*mergedElement)
	mb, bMerged := b.(*mergedElement)
	if aMerged || bMerged {
		if !aMerged || !bMerged || len(ma.delegates) != len(mb.delegates) {
			return false
		}
		for i := range ma.delegates {
			if !Same(ma.delegates[i], mb.delegates[i]) {
				return false
			}
		}
		return true
	}
	ba, ok1 := a.(*boundElement)
	bb, ok2 := b.(*boundElement)
	if !ok1 || !ok2 {
		return a == b
	}
	if ba == bb {
		return true
	}
	if ba.file != bb.file {
		return false
	}
	na, sa := ba.current()
	nb, sb := bb.current()
	if sa == Existing || sb == Existing {
		return sa == sb && na == nb
	}
	if ba.pinned || bb.pinned || ba.parent == nil || bb.parent == nil {
		return false
	}
	return ba.desc == bb.desc && Same(ba.parent, bb.parent)
}

// NameOf returns the text of el's name-value slot.
func NameOf(el Element) (string, bool) {
	if el == nil {
		return "", false
	}
	d := el.Contract().NameValue()
	if d == nil {
		return "", false
	}
	return el.Text(d)
}
