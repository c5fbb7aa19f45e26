package dsl

import (
	"fmt"

	"github.com/reoring/xdom"
)

// Schema is a compiled spec.
type Schema struct {
	// Contracts holds every compiled contract by spec name.
	Contracts   map[string]*xdom.Contract
	Description *xdom.Description
}

// Contract returns the compiled contract named name.
func (s *Schema) Contract(name string) (*xdom.Contract, bool) {
	c, ok := s.Contracts[name]
	return c, ok
}

// Compile builds dynamic contracts from s. Converter names are looked up in
// r, so converters registered with r.RegisterNamedConverter are available.
// All problems are reported together as xdom.Issues.
func Compile(r *xdom.Registry, s *Spec) (*Schema, error) {
	if r == nil {
		r = xdom.DefaultRegistry()
	}
	var iss xdom.Issues
	bad := func(path, format string, args ...any) {
		iss = append(iss, xdom.Issue{Path: path, Code: xdom.CodeInvalidContract, Message: fmt.Sprintf(format, args...)})
	}

	naming, ok := namingStrategy(s.Naming)
	if !ok {
		bad("/naming", "unknown naming strategy %q", s.Naming)
	}

	// all builders exist before any slot is added so contracts can refer to
	// each other in any order
	builders := make(map[string]*xdom.ContractBuilder, len(s.Contracts))
	owner := make(map[string]int, len(s.Contracts))
	for i, cs := range s.Contracts {
		path := fmt.Sprintf("/contracts/%d", i)
		if cs.Name == "" {
			bad(path, "contract has no name")
			continue
		}
		if _, dup := builders[cs.Name]; dup {
			iss = append(iss, xdom.Issue{
				Path: path, Code: xdom.CodeDuplicateName,
				Message: fmt.Sprintf("contract %q declared twice", cs.Name),
				Params:  map[string]any{"name": cs.Name},
			})
			continue
		}
		element := cs.Element
		if element == "" {
			element = cs.Name
		}
		builders[cs.Name] = xdom.NewContract(element).Naming(naming).Namespace(cs.NS)
		owner[cs.Name] = i
	}

	for i, cs := range s.Contracts {
		b := builders[cs.Name]
		if b == nil || owner[cs.Name] != i {
			continue
		}
		for _, ss := range cs.Slots {
			path := "/contracts/" + cs.Name + "/" + ss.Field
			if err := addSlot(r, b, builders, ss); err != nil {
				bad(path, "%v", err)
			}
		}
	}

	out := &Schema{Contracts: make(map[string]*xdom.Contract, len(builders))}
	for _, cs := range s.Contracts {
		b := builders[cs.Name]
		if b == nil || out.Contracts[cs.Name] != nil {
			continue
		}
		c, err := b.Build()
		if err != nil {
			if more, ok := xdom.AsIssues(err); ok {
				iss = append(iss, more...)
				continue
			}
			bad("/contracts/"+cs.Name, "%v", err)
			continue
		}
		out.Contracts[cs.Name] = c
	}

	switch {
	case s.Root == "":
		bad("/root", "no root contract")
	case builders[s.Root] == nil:
		bad("/root", "unknown root contract %q", s.Root)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	out.Description = &xdom.Description{
		Root:          out.Contracts[s.Root],
		Name:          s.Element,
		Namespaces:    s.Namespaces,
		NamespaceKeys: s.NamespaceKeys,
	}
	return out, nil
}

func addSlot(r *xdom.Registry, b *xdom.ContractBuilder, builders map[string]*xdom.ContractBuilder, ss SlotSpec) error {
	if ss.Field == "" {
		return fmt.Errorf("slot has no field")
	}
	target := func(name string) (*xdom.Contract, error) {
		tb, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown contract %q", name)
		}
		return tb.Contract(), nil
	}
	conv := func() (*xdom.AnyConverter, error) {
		if ss.Ref != "" {
			if ss.Converter != "" {
				return nil, fmt.Errorf("ref and converter are exclusive")
			}
			t, err := target(ss.Ref)
			if err != nil {
				return nil, err
			}
			return xdom.ReferenceConverter(t), nil
		}
		name := ss.Converter
		if name == "" {
			name = "string"
		}
		c, ok := r.NamedConverter(name)
		if !ok {
			return nil, fmt.Errorf("unknown converter %q", name)
		}
		return c, nil
	}

	var st *xdom.SlotStep
	switch ss.Kind {
	case "leaf", "attribute", "text", "values":
		if ss.Contract != "" {
			return fmt.Errorf("%s slots hold values, not contract %q", ss.Kind, ss.Contract)
		}
		c, err := conv()
		if err != nil {
			return err
		}
		switch ss.Kind {
		case "leaf":
			st = b.Leaf(ss.Field, c)
		case "attribute":
			st = b.Attribute(ss.Field, c)
		case "text":
			st = b.Text(ss.Field, c)
		default:
			st = b.Values(ss.Field, c)
		}
	case "child", "collection":
		if ss.Ref != "" || ss.Converter != "" {
			return fmt.Errorf("%s slots hold elements, not values", ss.Kind)
		}
		c, err := target(ss.Contract)
		if err != nil {
			return err
		}
		if ss.Kind == "child" {
			st = b.Child(ss.Field, c)
		} else {
			st = b.Collection(ss.Field, c)
		}
	default:
		return fmt.Errorf("unknown slot kind %q", ss.Kind)
	}

	if ss.Name != "" {
		st.Name(ss.Name)
	}
	if ss.NS != "" {
		st.NamespaceKey(ss.NS)
	}
	if ss.NameValue {
		st.NameValue()
	}
	if ss.Index != 0 {
		st.Index(ss.Index)
	}
	return nil
}

func namingStrategy(name string) (xdom.NameStrategy, bool) {
	switch name {
	case "", "hyphen":
		return xdom.HyphenNames, true
	case "camel":
		return xdom.CamelNames, true
	}
	return nil, false
}
