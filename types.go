package xdom

// Kind classifies a contract slot.
type Kind uint8

const (
	KindFixed      Kind = iota // Single-valued child tag (optionally indexed).
	KindCollection             // Repeatable child tags, document order.
	KindAttribute              // Attribute of the element.
	KindText                   // The element's own character data.
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindCollection:
		return "collection"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	}
	return "unknown"
}

// isTag reports whether slots of this kind are backed by child elements.
func (k Kind) isTag() bool { return k == KindFixed || k == KindCollection }

// State is the lifecycle state of a bound element.
type State uint8

const (
	Nonexistent State = iota // No backing node; mutators create it.
	Existing                 // Backed by a live node.
	Invalidated              // Node removed or file closed; accessors return empty.
)

func (s State) String() string {
	switch s {
	case Nonexistent:
		return "nonexistent"
	case Existing:
		return "existing"
	case Invalidated:
		return "invalidated"
	}
	return "unknown"
}
