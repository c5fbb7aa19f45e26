package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/xdom"
)

// segment is one step of a query path: name, name[i], @attr or text().
type segment struct {
	name  string
	index int
	attr  bool
}

func parsePath(p string) ([]segment, error) {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("path %q must start with /", p)
	}
	var out []segment
	for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if part == "" {
			return nil, fmt.Errorf("path %q has an empty step", p)
		}
		if strings.HasPrefix(part, "@") {
			out = append(out, segment{name: part[1:], attr: true})
			continue
		}
		seg := segment{name: part}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("bad step %q", part)
			}
			n, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("bad index in step %q", part)
			}
			seg.name, seg.index = part[:i], n
		}
		out = append(out, seg)
	}
	return out, nil
}

// target is what a path resolves to: an element, or a value slot of one.
type target struct {
	el xdom.Element
	d  *xdom.Descriptor
}

// text reads the target's textual value.
func (t target) text() (string, bool) { return t.el.Text(t.d) }

// walk resolves p from the root of f. Only the last step may name a value
// slot; missing elements are reported with the path walked so far.
func walk(root xdom.Element, p string) (target, error) {
	segs, err := parsePath(p)
	if err != nil {
		return target{}, err
	}
	if segs[0].name != root.XMLName().Local || segs[0].index != 0 {
		return target{}, fmt.Errorf("path starts at %q, document root is %q", segs[0].name, root.XMLName().Local)
	}
	cur := target{el: root}
	for i, seg := range segs[1:] {
		if cur.d != nil {
			return target{}, fmt.Errorf("%s is a value", xdom.PathOf(cur.el)+"/"+cur.d.String())
		}
		d := findSlot(cur.el.Contract(), seg)
		if d == nil {
			return target{}, fmt.Errorf("%s has no slot %q", xdom.PathOf(cur.el), seg.name)
		}
		last := i == len(segs)-2
		switch {
		case d.Kind == xdom.KindCollection:
			items := cur.el.Collection(d)
			if seg.index >= len(items) {
				return target{}, fmt.Errorf("%s has %d %s items", xdom.PathOf(cur.el), len(items), seg.name)
			}
			cur = target{el: items[seg.index]}
		case d.Contract != nil:
			next := cur.el.Fixed(d)
			if !next.Exists() {
				return target{}, fmt.Errorf("%s does not exist", xdom.PathOf(next))
			}
			cur = target{el: next}
		default:
			if !last {
				return target{}, fmt.Errorf("%s is a value", xdom.PathOf(cur.el)+"/"+d.String())
			}
			cur = target{el: cur.el, d: d}
		}
	}
	return cur, nil
}

// findSlot matches a step against the XML names of c's slots.
func findSlot(c *xdom.Contract, seg segment) *xdom.Descriptor {
	if c == nil {
		return nil
	}
	if seg.name == "text()" {
		return c.TextDescriptor()
	}
	for _, d := range c.Descriptors() {
		if d.Name != seg.name || (d.Kind == xdom.KindAttribute) != seg.attr {
			continue
		}
		if d.Kind == xdom.KindFixed && d.Index != seg.index {
			continue
		}
		return d
	}
	return nil
}
