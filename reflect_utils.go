package xdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// TagKey is the struct tag consulted on contract fields.
const TagKey = "xdom"

var nodeType = reflect.TypeOf((*Node)(nil)).Elem()

// slotTag is the parsed form of `xdom:"name,ns=key,namevalue,index=N,converter=name"`.
type slotTag struct {
	name      string
	ns        string
	nameValue bool
	index     int
	converter string
	skip      bool
}

// parseSlotTag applies the repository-wide tag rule. The first bare word is
// the XML name (name= works too); "-" disables the field.
func parseSlotTag(sf reflect.StructField) (slotTag, error) {
	var st slotTag
	raw, ok := sf.Tag.Lookup(TagKey)
	if !ok || raw == "" {
		return st, nil
	}
	if raw == "-" {
		st.skip = true
		return st, nil
	}
	for i, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "namevalue":
			st.nameValue = true
		case strings.HasPrefix(p, "name="):
			st.name = strings.TrimPrefix(p, "name=")
		case strings.HasPrefix(p, "ns="):
			st.ns = strings.TrimPrefix(p, "ns=")
		case strings.HasPrefix(p, "converter="):
			st.converter = strings.TrimPrefix(p, "converter=")
		case strings.HasPrefix(p, "index="):
			n, err := strconv.Atoi(strings.TrimPrefix(p, "index="))
			if err != nil || n < 0 {
				return st, fmt.Errorf("field %s: bad index %q", sf.Name, p)
			}
			st.index = n
		case i == 0 && !strings.Contains(p, "="):
			st.name = p
		default:
			return st, fmt.Errorf("field %s: unknown tag option %q", sf.Name, p)
		}
	}
	return st, nil
}

// nodeFieldIndex returns the index of the embedded Node field, or -1.
func nodeFieldIndex(t reflect.Type) int {
	if t.Kind() != reflect.Struct {
		return -1
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == nodeType {
			return i
		}
	}
	return -1
}

// isContractType reports whether t can back an element contract.
func isContractType(t reflect.Type) bool { return nodeFieldIndex(t) >= 0 }
