package xdom

import "github.com/reoring/xdom/xmltree"

// tagNodes returns the children of parent filling tag slot d, in document
// order.
func (f *File) tagNodes(parent xmltree.NodeID, d *Descriptor, key string) []xmltree.NodeID {
	var out []xmltree.NodeID
	for _, c := range f.doc.Children(parent) {
		if f.matchesTag(c, d.Name, key) {
			out = append(out, c)
		}
	}
	return out
}

// findFixed returns the d.Index-th child filling fixed slot d.
func (f *File) findFixed(parent xmltree.NodeID, d *Descriptor, key string) xmltree.NodeID {
	nodes := f.tagNodes(parent, d, key)
	if d.Index < len(nodes) {
		return nodes[d.Index]
	}
	return xmltree.InvalidNode
}

// slotOf returns the tag slot of parent contract c that node n fills.
func (f *File) slotOf(c *Contract, parentKey string, n xmltree.NodeID) *Descriptor {
	if c == nil {
		return nil
	}
	for _, d := range c.slots {
		if d.Kind.isTag() && f.matchesTag(n, d.Name, childKey(parentKey, d)) {
			return d
		}
	}
	return nil
}

// insertPosition computes where a new child for slot d goes. When d already
// has children the new one lands before the limit-th of them, or right after
// the last, wherever they sit in the document. Otherwise children are kept in
// contract order: after the last child of an earlier slot, else before the
// first child of a later slot, else at the end.
func (f *File) insertPosition(parent xmltree.NodeID, c *Contract, parentKey string, d *Descriptor, limit int) int {
	key := childKey(parentKey, d)
	kids := f.doc.Children(parent)
	slots := make([]*Descriptor, len(kids))
	var own []int
	for i, k := range kids {
		if f.matchesTag(k, d.Name, key) {
			own = append(own, i)
			continue
		}
		slots[i] = f.slotOf(c, parentKey, k)
	}
	switch {
	case limit < len(own):
		return own[limit]
	case len(own) > 0:
		return own[len(own)-1] + 1
	}
	after := -1
	for i, od := range slots {
		if od != nil && od.order < d.order {
			after = i
		}
	}
	if after >= 0 {
		return after + 1
	}
	for i, od := range slots {
		if od != nil && od.order > d.order {
			return i
		}
	}
	return -1
}

// insertTag creates a new child for slot d of the element (c, parentKey)
// backed by parent, placed as its limit-th child among the existing ones.
func (f *File) insertTag(parent xmltree.NodeID, c *Contract, parentKey string, d *Descriptor, limit int) xmltree.NodeID {
	key := childKey(parentKey, d)
	pos := f.insertPosition(parent, c, parentKey, d, limit)
	name := xmltree.Name{Space: f.namespaceFor(parent, key), Local: d.Name}
	return f.doc.InsertChild(parent, pos, name)
}

// ensureFixed returns the node of fixed slot d under parent, creating it and
// any missing preceding same-named siblings.
func (f *File) ensureFixed(parent xmltree.NodeID, c *Contract, parentKey string, d *Descriptor) (xmltree.NodeID, bool) {
	key := childKey(parentKey, d)
	have := len(f.tagNodes(parent, d, key))
	if have > d.Index {
		return f.findFixed(parent, d, key), false
	}
	n := xmltree.InvalidNode
	for ; have <= d.Index; have++ {
		n = f.insertTag(parent, c, parentKey, d, have)
	}
	return n, true
}

// chooseVariant resolves the concrete contract for node n of a slot typed
// with c.
func chooseVariant(c *Contract, doc *xmltree.Document, n xmltree.NodeID) *Contract {
	if !c.Abstract() {
		return c
	}
	if v := c.chooser.Choose(doc, n); v != nil {
		return v
	}
	return c.Variants()[0]
}
