package xdom

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/reoring/xdom/i18n"
	"github.com/reoring/xdom/xmltree"
)

var elementType = reflect.TypeOf((*Element)(nil)).Elem()

type resolveKey struct {
	file     uint32
	scope    xmltree.NodeID
	contract uint32
}

func (k resolveKey) owner() uint32 { return k.file }

// Shadowed is a named element hidden by an earlier element with the same
// name. The resolver keeps the first one; validators may report the rest.
type Shadowed struct {
	Name    string
	Element Element
	Winner  Element
	// SameIdentityScope is true when both elements share an identity scope,
	// i.e. the duplicate is a genuine naming conflict.
	SameIdentityScope bool
}

// ResolutionMap maps names to the elements of one contract found under a
// scope. It is computed wholesale and never updated in place.
type ResolutionMap struct {
	target   *Contract
	scope    Element
	stamp    int64
	names    []string
	byName   map[string]Element
	shadowed []Shadowed
}

// Lookup returns the first element named name.
func (m *ResolutionMap) Lookup(name string) (Element, bool) {
	if m == nil {
		return nil, false
	}
	el, ok := m.byName[name]
	return el, ok
}

// Names returns the visible names in document order.
func (m *ResolutionMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Elements returns the visible elements in document order.
func (m *ResolutionMap) Elements() []Element {
	if m == nil {
		return nil
	}
	out := make([]Element, len(m.names))
	for i, n := range m.names {
		out[i] = m.byName[n]
	}
	return out
}

// Shadowed returns elements hidden by earlier same-named ones.
func (m *ResolutionMap) Shadowed() []Shadowed {
	if m == nil {
		return nil
	}
	return append([]Shadowed(nil), m.shadowed...)
}

// Stamp is the modification count the map was computed under.
func (m *ResolutionMap) Stamp() int64 { return m.stamp }

// Target returns the contract whose elements are mapped.
func (m *ResolutionMap) Target() *Contract { return m.target }

// Len returns the number of visible names.
func (m *ResolutionMap) Len() int { return len(m.names) }

func resolutionMap(ctx context.Context, scope Element, target *Contract) (*ResolutionMap, error) {
	if scope == nil || target == nil {
		return &ResolutionMap{target: target, byName: map[string]Element{}}, nil
	}
	f := scope.File()
	be, ok := scope.(*boundElement)
	if !ok || f == nil {
		// merged scopes are not cached
		return computeResolution(ctx, scope, target, 0)
	}
	n, st := be.current()
	if st != Existing {
		return &ResolutionMap{target: target, scope: scope, byName: map[string]Element{}}, nil
	}
	stamp := f.stamp()
	key := resolveKey{file: f.handle, scope: n, contract: target.id}
	m, err := f.m.resolveCache.get(key, stamp, func() (*ResolutionMap, error) {
		f.logger().Debug("resolution map recompute",
			zap.String("scope", PathOf(scope)),
			zap.Stringer("contract", target),
			zap.Int64("stamp", stamp))
		return computeResolution(ctx, scope, target, stamp)
	})
	if err != nil {
		f.logger().Warn("resolution walk aborted", zap.String("scope", PathOf(scope)), zap.Error(err))
		return nil, err
	}
	return m, nil
}

// computeResolution walks scope depth-first in document order. The first
// element carrying a name wins; later ones are recorded as shadowed.
func computeResolution(ctx context.Context, scope Element, target *Contract, stamp int64) (*ResolutionMap, error) {
	m := &ResolutionMap{target: target, scope: scope, stamp: stamp, byName: map[string]Element{}}
	var desc FileDescription
	if f := scope.File(); f != nil {
		desc = f.desc
	}
	var walk func(el Element) error
	walk = func(el Element) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrComputationAborted, err)
		}
		if el.Contract().IsA(target) {
			if name, ok := NameOf(el); ok && name != "" {
				if winner, dup := m.byName[name]; dup {
					same := false
					if desc != nil {
						same = Same(desc.IdentityScope(el), desc.IdentityScope(winner))
					}
					m.shadowed = append(m.shadowed, Shadowed{Name: name, Element: el, Winner: winner, SameIdentityScope: same})
				} else {
					m.byName[name] = el
					m.names = append(m.names, name)
				}
			}
		}
		var err error
		el.AcceptChildren(VisitorFunc(func(child Element) {
			if err == nil {
				err = walk(child)
			}
		}))
		return err
	}
	if err := walk(scope); err != nil {
		return nil, err
	}
	return m, nil
}

// ReferenceConverter resolves names of target-contract elements within the
// owning file's resolve scope. Values are bound contract structs (or
// Elements for dynamic contracts).
func ReferenceConverter(target *Contract) *AnyConverter {
	a := &AnyConverter{
		typ:       target.GoType(),
		reference: target,
		fromString: func(s string, cc *ConvertContext) (any, bool) {
			el, ok := resolveReference(cc, target, s)
			if !ok {
				return nil, false
			}
			return bindValue(el), true
		},
		toString: func(v any, _ *ConvertContext) (string, bool) {
			el := ElementOf(v)
			if el == nil {
				return "", false
			}
			return NameOf(el)
		},
		errorMessage: func(s string, _ *ConvertContext) string {
			return i18n.T(CodeUnresolvedReference, map[string]string{"value": s})
		},
		variants: func(cc *ConvertContext) []any {
			m, ok := referenceScope(cc, target)
			if !ok {
				return nil
			}
			els := m.Elements()
			out := make([]any, len(els))
			for i, el := range els {
				out[i] = bindValue(el)
			}
			return out
		},
	}
	if a.typ == nil {
		a.typ = elementType
	}
	return a
}

func referenceScope(cc *ConvertContext, target *Contract) (*ResolutionMap, bool) {
	el := cc.Element()
	if el == nil || el.File() == nil {
		return nil, false
	}
	scope := el.File().desc.ResolveScope(el)
	m, err := resolutionMap(cc.Context(), scope, target)
	if err != nil {
		cc.Fail(err)
		return nil, false
	}
	return m, true
}

func resolveReference(cc *ConvertContext, target *Contract, name string) (Element, bool) {
	if name == "" {
		return nil, false
	}
	m, ok := referenceScope(cc, target)
	if !ok {
		return nil, false
	}
	return m.Lookup(name)
}

// IsReferenceTo reports whether the text of value slot d on el resolves to
// target by element identity.
func IsReferenceTo(el Element, d *Descriptor, target Element) bool {
	if el == nil || d == nil || d.conv.Reference() == nil {
		return false
	}
	text, ok := el.Text(d)
	if !ok {
		return false
	}
	got, ok := resolveReference(newConvertContext(context.Background(), el), d.conv.Reference(), text)
	return ok && Same(got, target)
}
