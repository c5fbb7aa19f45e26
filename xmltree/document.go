package xmltree

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// NodeID indexes a node in a Document arena. Indices are never reused while
// the document is open, so a NodeID held by a caller either names the same
// node or an invalid one.
type NodeID int32

// InvalidNode is returned when no node matches.
const InvalidNode NodeID = -1

// Name is an expanded XML name.
type Name struct {
	Space string
	Local string
}

// Attr is a single attribute of an element node.
type Attr struct {
	Name  Name
	Value string
}

type node struct {
	name     Name
	parent   NodeID
	children []NodeID
	attrs    []Attr
	text     string
	detached bool
}

// Counter is a monotonically increasing modification counter. Documents bump
// their counter on every structural or textual edit; a Counter can be shared
// by several documents to obtain one global stamp.
type Counter struct {
	n atomic.Int64
}

// Inc increments the counter and returns the new value.
func (c *Counter) Inc() int64 { return c.n.Add(1) }

// ModificationCount returns the current value.
func (c *Counter) ModificationCount() int64 {
	if c == nil {
		return 0
	}
	return c.n.Load()
}

// Option configures a Document.
type Option func(*Document)

// WithCounter makes the document report edits to a shared counter.
func WithCounter(c *Counter) Option {
	return func(d *Document) {
		if c != nil {
			d.counter = c
		}
	}
}

// WithID overrides the generated document identifier.
func WithID(id string) Option {
	return func(d *Document) {
		if id != "" {
			d.id = id
		}
	}
}

// Document is an arena-backed element tree. All nodes are owned by the
// document and addressed by NodeID; nodes never point at each other except
// through indices.
//
// Reads may run concurrently; edits must be serialized by the caller.
type Document struct {
	id      string
	nodes   []node
	root    NodeID
	counter *Counter
	closed  atomic.Bool
}

// New creates a document holding a single root element.
func New(root Name, opts ...Option) *Document {
	d := newDocument(opts...)
	d.root = d.alloc(root, InvalidNode)
	return d
}

func newDocument(opts ...Option) *Document {
	d := &Document{id: uuid.NewString(), root: InvalidNode, counter: &Counter{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) alloc(name Name, parent NodeID) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{name: name, parent: parent})
	return id
}

func (d *Document) touch() {
	d.counter.Inc()
}

// ID returns the stable identifier of the document.
func (d *Document) ID() string {
	if d == nil {
		return ""
	}
	return d.id
}

// Root returns the root element.
func (d *Document) Root() NodeID {
	if d == nil || d.closed.Load() {
		return InvalidNode
	}
	return d.root
}

// ModificationCount reports the document's modification stamp.
func (d *Document) ModificationCount() int64 {
	if d == nil {
		return 0
	}
	return d.counter.ModificationCount()
}

// Counter returns the counter the document reports edits to.
func (d *Document) Counter() *Counter {
	if d == nil {
		return nil
	}
	return d.counter
}

// Close releases the document. Every NodeID becomes invalid.
func (d *Document) Close() {
	if d == nil {
		return
	}
	if !d.closed.Swap(true) {
		d.touch()
	}
}

// Closed reports whether Close was called.
func (d *Document) Closed() bool { return d == nil || d.closed.Load() }

func (d *Document) inRange(n NodeID) bool {
	return d != nil && n >= 0 && int(n) < len(d.nodes)
}

// Valid reports whether n is attached to the live tree.
func (d *Document) Valid(n NodeID) bool {
	if !d.inRange(n) || d.closed.Load() {
		return false
	}
	for cur := n; cur != InvalidNode; cur = d.nodes[cur].parent {
		if d.nodes[cur].detached {
			return false
		}
		if d.nodes[cur].parent == InvalidNode && cur != d.root {
			return false
		}
	}
	return true
}

// Name returns the element name of n.
func (d *Document) Name(n NodeID) Name {
	if !d.inRange(n) {
		return Name{}
	}
	return d.nodes[n].name
}

// Parent returns the parent element of n, or InvalidNode for the root.
func (d *Document) Parent(n NodeID) NodeID {
	if !d.inRange(n) {
		return InvalidNode
	}
	return d.nodes[n].parent
}

// Children returns a copy of the element children of n in document order.
func (d *Document) Children(n NodeID) []NodeID {
	if !d.inRange(n) {
		return nil
	}
	src := d.nodes[n].children
	out := make([]NodeID, len(src))
	copy(out, src)
	return out
}

// IndexOf returns the position of child among the children of parent.
func (d *Document) IndexOf(parent, child NodeID) int {
	if !d.inRange(parent) {
		return -1
	}
	for i, c := range d.nodes[parent].children {
		if c == child {
			return i
		}
	}
	return -1
}

// Text returns the trimmed character data of n.
func (d *Document) Text(n NodeID) string {
	if !d.inRange(n) {
		return ""
	}
	return strings.TrimSpace(d.nodes[n].text)
}

// SetText replaces the character data of n.
func (d *Document) SetText(n NodeID, text string) {
	if !d.Valid(n) {
		return
	}
	d.nodes[n].text = text
	d.touch()
}

// Attrs returns a copy of the attributes of n.
func (d *Document) Attrs(n NodeID) []Attr {
	if !d.inRange(n) {
		return nil
	}
	src := d.nodes[n].attrs
	out := make([]Attr, len(src))
	copy(out, src)
	return out
}

// Attr returns the value of the attribute with the given name.
func (d *Document) Attr(n NodeID, name Name) (string, bool) {
	if !d.inRange(n) {
		return "", false
	}
	for _, a := range d.nodes[n].attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr adds or replaces an attribute.
func (d *Document) SetAttr(n NodeID, name Name, value string) {
	if !d.Valid(n) {
		return
	}
	attrs := d.nodes[n].attrs
	for i := range attrs {
		if attrs[i].Name == name {
			attrs[i].Value = value
			d.touch()
			return
		}
	}
	d.nodes[n].attrs = append(attrs, Attr{Name: name, Value: value})
	d.touch()
}

// RemoveAttr deletes an attribute and reports whether it was present.
func (d *Document) RemoveAttr(n NodeID, name Name) bool {
	if !d.Valid(n) {
		return false
	}
	attrs := d.nodes[n].attrs
	for i := range attrs {
		if attrs[i].Name == name {
			d.nodes[n].attrs = append(attrs[:i], attrs[i+1:]...)
			d.touch()
			return true
		}
	}
	return false
}

// InsertChild creates a new element under parent at position pos among its
// children. A negative or out-of-range position appends.
func (d *Document) InsertChild(parent NodeID, pos int, name Name) NodeID {
	if !d.Valid(parent) {
		return InvalidNode
	}
	id := d.alloc(name, parent)
	kids := d.nodes[parent].children
	if pos < 0 || pos >= len(kids) {
		d.nodes[parent].children = append(kids, id)
	} else {
		kids = append(kids, InvalidNode)
		copy(kids[pos+1:], kids[pos:])
		kids[pos] = id
		d.nodes[parent].children = kids
	}
	d.touch()
	return id
}

// AppendChild creates a new element as the last child of parent.
func (d *Document) AppendChild(parent NodeID, name Name) NodeID {
	return d.InsertChild(parent, -1, name)
}

// Remove detaches n and its subtree. The root cannot be removed.
func (d *Document) Remove(n NodeID) bool {
	if !d.Valid(n) || n == d.root {
		return false
	}
	p := d.nodes[n].parent
	kids := d.nodes[p].children
	for i, c := range kids {
		if c == n {
			d.nodes[p].children = append(kids[:i], kids[i+1:]...)
			break
		}
	}
	d.nodes[n].detached = true
	d.touch()
	return true
}
