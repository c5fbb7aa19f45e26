package xdom

// ContractBuilder assembles a dynamic contract. Dynamic contracts have no Go
// type and are navigated through the Element API.
//
//	book := xdom.NewContract("book")
//	book.Attribute("ID", xdom.StringConverter()).Name("id")
//	book.Leaf("Title", xdom.StringConverter()).NameValue()
//	library := xdom.NewContract("library").Namespace("lib")
//	library.Collection("Books", book.Contract())
type ContractBuilder struct {
	c      *Contract
	naming NameStrategy
}

// SlotStep refines the slot just added; it embeds the builder so calls can
// continue with the next slot.
type SlotStep struct {
	*ContractBuilder
	d *Descriptor
}

// NewContract starts a dynamic contract with the given element name.
func NewContract(name string) *ContractBuilder {
	return &ContractBuilder{c: newContract(name), naming: HyphenNames}
}

// Naming sets the strategy deriving XML names of slots added afterwards.
func (b *ContractBuilder) Naming(s NameStrategy) *ContractBuilder {
	if s != nil {
		b.naming = s
	}
	return b
}

// Namespace declares the namespace key of the contract.
func (b *ContractBuilder) Namespace(key string) *ContractBuilder {
	b.c.nsKey = key
	return b
}

// Chooser makes the contract polymorphic.
func (b *ContractBuilder) Chooser(ch TypeChooser) *ContractBuilder {
	b.c.chooser = ch
	return b
}

func (b *ContractBuilder) slot(field string, kind Kind, c *Contract, conv *AnyConverter) *SlotStep {
	d := &Descriptor{Field: field, Kind: kind, Contract: c, conv: conv, fieldIndex: -1}
	if kind != KindText {
		d.Name = slotName(b.naming, field, kind == KindCollection)
	}
	b.c.slots = append(b.c.slots, d)
	return &SlotStep{ContractBuilder: b, d: d}
}

// Leaf adds a single child tag holding a converted value.
func (b *ContractBuilder) Leaf(field string, conv *AnyConverter) *SlotStep {
	return b.slot(field, KindFixed, nil, conv)
}

// Attribute adds an attribute holding a converted value.
func (b *ContractBuilder) Attribute(field string, conv *AnyConverter) *SlotStep {
	return b.slot(field, KindAttribute, nil, conv)
}

// Text adds the element's own character data as a converted value.
func (b *ContractBuilder) Text(field string, conv *AnyConverter) *SlotStep {
	return b.slot(field, KindText, nil, conv)
}

// Child adds a single child tag bound to contract c.
func (b *ContractBuilder) Child(field string, c *Contract) *SlotStep {
	return b.slot(field, KindFixed, c, nil)
}

// Collection adds repeatable child tags bound to contract c.
func (b *ContractBuilder) Collection(field string, c *Contract) *SlotStep {
	return b.slot(field, KindCollection, c, nil)
}

// Values adds repeatable child tags each holding a converted value.
func (b *ContractBuilder) Values(field string, conv *AnyConverter) *SlotStep {
	return b.slot(field, KindCollection, nil, conv)
}

// Contract returns the contract under construction. It can be referenced by
// other builders (including itself) before Build.
func (b *ContractBuilder) Contract() *Contract { return b.c }

// Build validates the contract.
func (b *ContractBuilder) Build() (*Contract, error) {
	if iss := seal(b.c); len(iss) > 0 {
		return nil, iss
	}
	return b.c, nil
}

// MustBuild is Build that panics on error.
func (b *ContractBuilder) MustBuild() *Contract {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Name overrides the derived XML name.
func (s *SlotStep) Name(name string) *SlotStep {
	s.d.Name = name
	return s
}

// NamespaceKey pins the slot to a namespace key.
func (s *SlotStep) NamespaceKey(key string) *SlotStep {
	s.d.NamespaceKey = key
	return s
}

// NameValue marks the slot as the element's identity name.
func (s *SlotStep) NameValue() *SlotStep {
	s.d.NameValue = true
	return s
}

// Index selects the Nth same-named child for fixed slots.
func (s *SlotStep) Index(i int) *SlotStep {
	s.d.Index = i
	return s
}

// StringConverter returns the built-in string converter.
func StringConverter() *AnyConverter { return builtinNamed()["string"] }
