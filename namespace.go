package xdom

import (
	"slices"

	"github.com/reoring/xdom/xmltree"
)

type nsCacheKey struct {
	file uint32
	key  string
}

func (k nsCacheKey) owner() uint32 { return k.file }

// childKey computes the effective namespace key of a slot: the pinned key,
// else the child contract's key, else the parent's.
func childKey(parentKey string, d *Descriptor) string {
	if d.NamespaceKey != "" {
		return d.NamespaceKey
	}
	if d.Contract != nil && d.Contract.nsKey != "" {
		return d.Contract.nsKey
	}
	return parentKey
}

// allowedNamespaces returns the cached allow-list of a namespace key.
func (f *File) allowedNamespaces(key string) []string {
	if key == "" {
		return nil
	}
	v, _ := f.m.nsCache.get(nsCacheKey{file: f.handle, key: key}, f.stamp(), func() ([]string, error) {
		return f.desc.AllowedNamespaces(key, f.doc), nil
	})
	return v
}

// AllowedNamespaces exposes the cached allow-list for key.
func (f *File) AllowedNamespaces(key string) []string {
	return slices.Clone(f.allowedNamespaces(key))
}

func (f *File) namespaceAllowed(space, key string) bool {
	allowed := f.allowedNamespaces(key)
	return len(allowed) == 0 || slices.Contains(allowed, space)
}

// matchesTag reports whether node n is a tag named local in namespace key.
func (f *File) matchesTag(n xmltree.NodeID, local, key string) bool {
	name := f.doc.Name(n)
	return name.Local == local && f.namespaceAllowed(name.Space, key)
}

// namespaceFor picks the namespace of a new child of parent: the nearest
// ancestor namespace allowed for key, else the first allowed one. With no
// allow-list the parent's namespace is inherited.
func (f *File) namespaceFor(parent xmltree.NodeID, key string) string {
	allowed := f.allowedNamespaces(key)
	if len(allowed) == 0 {
		return f.doc.Name(parent).Space
	}
	for n := parent; n != xmltree.InvalidNode; n = f.doc.Parent(n) {
		if sp := f.doc.Name(n).Space; slices.Contains(allowed, sp) {
			return sp
		}
	}
	return allowed[0]
}

// findAttr locates the attribute of slot d on node n. Unkeyed attributes are
// unqualified; keyed ones match any allowed namespace.
func (f *File) findAttr(n xmltree.NodeID, d *Descriptor) (xmltree.Name, string, bool) {
	for _, a := range f.doc.Attrs(n) {
		if a.Name.Local != d.Name {
			continue
		}
		if d.NamespaceKey == "" {
			if a.Name.Space == "" {
				return a.Name, a.Value, true
			}
			continue
		}
		if f.namespaceAllowed(a.Name.Space, d.NamespaceKey) {
			return a.Name, a.Value, true
		}
	}
	return xmltree.Name{}, "", false
}

func (f *File) attrWriteName(n xmltree.NodeID, d *Descriptor) xmltree.Name {
	if name, _, ok := f.findAttr(n, d); ok {
		return name
	}
	if d.NamespaceKey == "" {
		return xmltree.Name{Local: d.Name}
	}
	if allowed := f.allowedNamespaces(d.NamespaceKey); len(allowed) > 0 {
		return xmltree.Name{Space: allowed[0], Local: d.Name}
	}
	return xmltree.Name{Local: d.Name}
}
