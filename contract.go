package xdom

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/reoring/xdom/i18n"
)

var contractSeq atomic.Uint32

// Contract is the compiled description of an element contract: its ordered
// slot descriptors, name-value slot, namespace key and, for polymorphic
// contracts, the chooser selecting a concrete variant. Contracts are
// immutable once built, except for merge strategies.
type Contract struct {
	id        uint32
	name      string
	goType    reflect.Type
	nsKey     string
	slots     []*Descriptor
	byField   map[string]*Descriptor
	nameValue *Descriptor
	text      *Descriptor
	chooser   TypeChooser
	binder    *binder

	mu    sync.RWMutex
	merge map[string]MergeStrategy
}

func newContract(name string) *Contract {
	return &Contract{id: contractSeq.Add(1), name: name, byField: map[string]*Descriptor{}}
}

// ID returns a process-unique identifier.
func (c *Contract) ID() uint32 { return c.id }

// Name returns the default element name of the contract.
func (c *Contract) Name() string { return c.name }

// GoType returns the registered struct (or interface, for polymorphic
// contracts) type, or nil for dynamic contracts.
func (c *Contract) GoType() reflect.Type { return c.goType }

// NamespaceKey returns the declared namespace key ("" inherits the parent's).
func (c *Contract) NamespaceKey() string { return c.nsKey }

// Descriptors returns the slots in declaration order.
func (c *Contract) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(c.slots))
	copy(out, c.slots)
	return out
}

// Slot returns the descriptor for a Go field (or dynamic slot) name.
func (c *Contract) Slot(field string) *Descriptor {
	if c == nil {
		return nil
	}
	return c.byField[field]
}

// NameValue returns the slot holding the element's identity name, or nil.
func (c *Contract) NameValue() *Descriptor {
	if c == nil {
		return nil
	}
	return c.nameValue
}

// TextDescriptor returns the own-text slot, or nil.
func (c *Contract) TextDescriptor() *Descriptor { return c.text }

// Abstract reports whether the contract is polymorphic; bound elements
// always carry one of its variants.
func (c *Contract) Abstract() bool { return c != nil && c.chooser != nil }

// Chooser returns the type chooser of a polymorphic contract.
func (c *Contract) Chooser() TypeChooser { return c.chooser }

// Variants returns the concrete contracts of a polymorphic contract.
func (c *Contract) Variants() []*Contract {
	if !c.Abstract() {
		return nil
	}
	return c.chooser.Variants()
}

// IsA reports whether c is other or one of other's variants.
func (c *Contract) IsA(other *Contract) bool {
	if c == nil || other == nil {
		return false
	}
	if c == other {
		return true
	}
	for _, v := range other.Variants() {
		if v == c {
			return true
		}
	}
	return false
}

// MergeStrategy returns the custom merge strategy registered for a slot.
func (c *Contract) MergeStrategy(field string) (MergeStrategy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.merge[field]
	return s, ok
}

// SetMergeStrategy installs a custom merge strategy for a slot.
func (c *Contract) SetMergeStrategy(field string, s MergeStrategy) error {
	if c.Slot(field) == nil {
		return Issues{Issue{Path: "/" + c.name + "/" + field, Code: CodeUnknownSlot, Message: i18n.T(CodeUnknownSlot, nil)}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.merge == nil {
		c.merge = map[string]MergeStrategy{}
	}
	c.merge[field] = s
	return nil
}

func (c *Contract) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.goType != nil {
		return c.goType.String()
	}
	return c.name
}

// Descriptor is the compiled metadata of one contract slot.
type Descriptor struct {
	Field        string // Go field name or dynamic slot name.
	Name         string // Tag or attribute local name; empty for text slots.
	NamespaceKey string // Pinned namespace key; empty inherits.
	Kind         Kind
	Index        int  // Ordinal among same-named children for fixed slots.
	NameValue    bool // Slot holds the element's identity name.
	// Contract is the element contract of child tags; nil for value slots.
	Contract *Contract

	conv       *AnyConverter
	order      int
	owner      *Contract
	fieldIndex int
}

// Converter returns the value converter; nil for element slots.
func (d *Descriptor) Converter() *AnyConverter { return d.conv }

// IsValue reports whether the slot converts text rather than holding
// contract-bound elements.
func (d *Descriptor) IsValue() bool { return d.conv != nil }

// Owner returns the contract declaring the slot.
func (d *Descriptor) Owner() *Contract { return d.owner }

func (d *Descriptor) String() string {
	switch d.Kind {
	case KindAttribute:
		return "@" + d.Name
	case KindText:
		return "text()"
	case KindFixed:
		if d.Index > 0 {
			return fmt.Sprintf("%s[%d]", d.Name, d.Index)
		}
	}
	return d.Name
}

type nameKey struct {
	name, ns string
	attr     bool
	index    int
}

// seal validates a contract and freezes its slot tables. Registration
// problems are returned as Issues rooted at /<contract>/<slot>.
func seal(c *Contract) Issues {
	var iss Issues
	bad := func(field, code, msg string, params map[string]any) {
		iss = AppendIssues(iss, Issue{Path: "/" + c.String() + "/" + field, Code: code, Message: msg, Params: params})
	}
	c.byField = make(map[string]*Descriptor, len(c.slots))
	c.nameValue, c.text = nil, nil
	names := map[nameKey]string{}
	kinds := map[nameKey]Kind{}
	for i, d := range c.slots {
		d.order, d.owner = i, c
		if d.Field == "" {
			bad(fmt.Sprint(i), CodeInvalidContract, "slot has no field name", nil)
			continue
		}
		if _, dup := c.byField[d.Field]; dup {
			bad(d.Field, CodeDuplicateName, i18n.T(CodeDuplicateName, map[string]string{"name": d.Field}), map[string]any{"name": d.Field})
			continue
		}
		c.byField[d.Field] = d
		switch {
		case d.Kind.isTag() && d.Contract == nil && d.conv == nil:
			bad(d.Field, CodeInvalidContract, "slot needs a contract or a converter", nil)
			continue
		case !d.Kind.isTag() && d.conv == nil:
			bad(d.Field, CodeInvalidContract, "value slot needs a converter", nil)
			continue
		case d.Contract != nil && d.conv != nil:
			bad(d.Field, CodeInvalidContract, "slot cannot be both element and value", nil)
			continue
		case d.Index < 0 || (d.Index > 0 && d.Kind != KindFixed):
			bad(d.Field, CodeInvalidContract, "index is only valid on fixed slots", nil)
			continue
		}
		if d.Kind != KindText && d.Name == "" {
			bad(d.Field, CodeInvalidContract, "slot has no XML name", nil)
			continue
		}
		if d.Kind == KindText {
			if c.text != nil {
				bad(d.Field, CodeDuplicateName, "only one text slot is allowed", nil)
				continue
			}
			c.text = d
		}
		if d.NameValue {
			if !d.IsValue() || d.Kind == KindCollection {
				bad(d.Field, CodeInvalidContract, "name value must be a single value slot", nil)
				continue
			}
			if c.nameValue != nil {
				bad(d.Field, CodeDuplicateName, "only one name value slot is allowed", nil)
				continue
			}
			c.nameValue = d
		}
		if d.Kind == KindText {
			continue
		}
		k := nameKey{name: d.Name, ns: d.NamespaceKey, attr: d.Kind == KindAttribute, index: d.Index}
		if d.Kind == KindCollection {
			k.index = -1
		}
		if prev, dup := names[k]; dup {
			bad(d.Field, CodeDuplicateName, i18n.T(CodeDuplicateName, map[string]string{"name": d.Name}), map[string]any{"name": d.Name, "other": prev})
			continue
		}
		names[k] = d.Field
		if d.Kind.isTag() {
			tk := nameKey{name: d.Name, ns: d.NamespaceKey}
			if pk, seen := kinds[tk]; seen && pk != d.Kind {
				bad(d.Field, CodeDuplicateName, "name used by both fixed and collection slots", map[string]any{"name": d.Name})
				continue
			}
			kinds[tk] = d.Kind
		}
	}
	return iss
}
