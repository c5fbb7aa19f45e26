package xdom

import (
	"slices"

	"github.com/reoring/xdom/overlay"
	"github.com/reoring/xdom/xmltree"
)

// FileDescription binds a kind of document to its root contract and decides
// the scopes used for name resolution and namespace policy.
type FileDescription interface {
	RootContract() *Contract
	// RootName is the expected local name of the root element.
	RootName() string
	// AcceptedNamespaces lists root namespaces; empty accepts any.
	AcceptedNamespaces() []string
	IsMyFile(doc *xmltree.Document) bool
	// ResolveScope returns the subtree searched when resolving a reference
	// held by ref.
	ResolveScope(ref Element) Element
	// IdentityScope returns the scope within which element names are meant
	// to be unique.
	IdentityScope(el Element) Element
	// AllowedNamespaces returns the namespaces acceptable for a namespace
	// key. An empty result accepts any namespace.
	AllowedNamespaces(key string, doc *xmltree.Document) []string
}

// Description is the default FileDescription. Hosts embed it and override
// hooks as needed.
type Description struct {
	Root       *Contract
	Name       string   // Defaults to Root.Name().
	Namespaces []string // Accepted root namespaces.
	// NamespaceKeys maps namespace keys to their baseline allow-lists.
	NamespaceKeys map[string][]string
	// NamespaceOverlays holds user edits applied on top of NamespaceKeys.
	NamespaceOverlays map[string]overlay.Delta
}

// NewDescription describes documents rooted at contract C.
func NewDescription[C any](r *Registry, namespaces ...string) (*Description, error) {
	c, err := Register[C](r)
	if err != nil {
		return nil, err
	}
	return &Description{Root: c, Namespaces: namespaces}, nil
}

func (d *Description) RootContract() *Contract { return d.Root }

func (d *Description) RootName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Root.Name()
}

func (d *Description) AcceptedNamespaces() []string { return d.Namespaces }

func (d *Description) IsMyFile(doc *xmltree.Document) bool {
	root := doc.Root()
	if root == xmltree.InvalidNode {
		return false
	}
	n := doc.Name(root)
	if n.Local != d.RootName() {
		return false
	}
	return len(d.Namespaces) == 0 || slices.Contains(d.Namespaces, n.Space)
}

// ResolveScope defaults to the file root.
func (d *Description) ResolveScope(ref Element) Element { return RootOf(ref) }

// IdentityScope defaults to the element's parent.
func (d *Description) IdentityScope(el Element) Element {
	if el == nil {
		return nil
	}
	if p := el.Parent(); p != nil {
		return p
	}
	return el
}

func (d *Description) AllowedNamespaces(key string, _ *xmltree.Document) []string {
	base := d.NamespaceKeys[key]
	if delta, ok := d.NamespaceOverlays[key]; ok {
		return overlay.Effective(base, delta)
	}
	return slices.Clone(base)
}
