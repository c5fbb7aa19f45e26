package xdom

import (
	"reflect"

	"github.com/reoring/xdom/xmltree"
)

// TypeChooser selects the concrete contract of a polymorphic slot by
// inspecting the node's discriminator.
type TypeChooser interface {
	// Choose returns the variant for node n. n may be xmltree.InvalidNode
	// for elements that do not exist yet; the default variant is returned.
	Choose(doc *xmltree.Document, n xmltree.NodeID) *Contract
	// Distinguish writes the discriminator of c onto a freshly created node.
	Distinguish(doc *xmltree.Document, n xmltree.NodeID, c *Contract)
	// Variants lists the concrete contracts, default first.
	Variants() []*Contract
}

// Variant maps a discriminator value to a contract.
type Variant struct {
	Value    string
	Contract *Contract
}

// AttributeChooser discriminates variants by an unqualified attribute. The
// first variant is the default used for missing or unknown values.
func AttributeChooser(attr string, variants ...Variant) TypeChooser {
	return &attributeChooser{attr: xmltree.Name{Local: attr}, variants: variants}
}

type attributeChooser struct {
	attr     xmltree.Name
	variants []Variant
}

func (a *attributeChooser) Choose(doc *xmltree.Document, n xmltree.NodeID) *Contract {
	if len(a.variants) == 0 {
		return nil
	}
	if v, ok := doc.Attr(n, a.attr); ok {
		for _, vr := range a.variants {
			if vr.Value == v {
				return vr.Contract
			}
		}
	}
	return a.variants[0].Contract
}

func (a *attributeChooser) Distinguish(doc *xmltree.Document, n xmltree.NodeID, c *Contract) {
	for _, vr := range a.variants {
		if vr.Contract == c {
			doc.SetAttr(n, a.attr, vr.Value)
			return
		}
	}
}

func (a *attributeChooser) Variants() []*Contract {
	out := make([]*Contract, 0, len(a.variants))
	for _, vr := range a.variants {
		out = append(out, vr.Contract)
	}
	return out
}

// ContractLookup resolves a Go type to its registered contract.
type ContractLookup func(t reflect.Type) (*Contract, error)

// ChooserFactory builds a chooser once the variant contracts can be looked
// up. Factories run during registration of the first slot that needs them.
type ChooserFactory func(lookup ContractLookup) (TypeChooser, error)

// TypedVariant pairs a discriminator value with a contract type.
type TypedVariant struct {
	Value string
	Type  reflect.Type
}

// VariantOf declares a typed variant for AttributeVariants.
func VariantOf[C any](value string) TypedVariant {
	return TypedVariant{Value: value, Type: reflect.TypeOf((*C)(nil)).Elem()}
}

// AttributeVariants is the typed form of AttributeChooser.
//
//	xdom.RegisterChooser[Shape](r, xdom.AttributeVariants("kind",
//		xdom.VariantOf[Circle]("circle"),
//		xdom.VariantOf[Square]("square")))
func AttributeVariants(attr string, variants ...TypedVariant) ChooserFactory {
	return func(lookup ContractLookup) (TypeChooser, error) {
		out := make([]Variant, 0, len(variants))
		for _, v := range variants {
			c, err := lookup(v.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, Variant{Value: v.Value, Contract: c})
		}
		return AttributeChooser(attr, out...), nil
	}
}
