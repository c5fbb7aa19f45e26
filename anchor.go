package xdom

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/xdom/i18n"
)

// Step is one level of an anchor path.
type Step struct {
	Name  string `json:"name"`
	NS    string `json:"ns,omitempty"`
	Index int    `json:"index"`
}

// Anchor re-locates an element after unrelated edits: the id of its file and
// the slot path from the root. Fixed slots record their ordinal, collection
// items their position among same-named siblings.
type Anchor struct {
	Root     string `json:"root"`
	RootName string `json:"rootName,omitempty"`
	Steps    []Step `json:"steps"`
}

func anchorIssue(path, msg string) Issues {
	return Issues{Issue{Path: path, Code: CodeInvalidAnchor, Message: i18n.T(CodeInvalidAnchor, nil), Hint: msg}}
}

// NewAnchor captures an anchor for el. Merged and invalidated elements
// cannot be anchored.
func NewAnchor(el Element) (Anchor, error) {
	if el == nil {
		return Anchor{}, anchorIssue("/", "nil element")
	}
	be, ok := el.(*boundElement)
	if !ok {
		return Anchor{}, anchorIssue(PathOf(el), "merged elements cannot be anchored")
	}
	if be.State() == Invalidated {
		return Anchor{}, anchorIssue(PathOf(el), "element is invalidated")
	}
	var steps []Step
	for cur := be; cur.parent != nil; cur = cur.parent {
		idx := cur.desc.Index
		if cur.pinned {
			idx = cur.position()
			if idx < 0 {
				return Anchor{}, anchorIssue(PathOf(el), "element is detached")
			}
		}
		steps = append(steps, Step{Name: cur.desc.Name, NS: cur.nsKey, Index: idx})
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Anchor{Root: be.file.id, RootName: be.file.desc.RootName(), Steps: steps}, nil
}

// String renders the anchor path, e.g. /library/book[1]/title.
func (a Anchor) String() string {
	b := strings.Builder{}
	b.WriteByte('/')
	b.WriteString(a.RootName)
	for _, s := range a.Steps {
		b.WriteByte('/')
		b.WriteString(s.Name)
		if s.Index > 0 {
			fmt.Fprintf(&b, "[%d]", s.Index)
		}
	}
	return b.String()
}

// Marshal encodes the anchor as JSON.
func (a Anchor) Marshal() ([]byte, error) { return json.Marshal(a) }

// ParseAnchor decodes a JSON anchor.
func ParseAnchor(data []byte) (Anchor, error) {
	var a Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return Anchor{}, anchorIssue("/", err.Error())
	}
	if a.Root == "" {
		return Anchor{}, anchorIssue("/", "missing root")
	}
	for _, s := range a.Steps {
		if s.Name == "" || s.Index < 0 {
			return Anchor{}, anchorIssue("/", "malformed step")
		}
	}
	return a, nil
}

// Replay walks the anchor's steps from root. It returns nil when a step is
// missing.
func (a Anchor) Replay(root Element) Element {
	cur := root
	for _, s := range a.Steps {
		if cur == nil || cur.Contract() == nil {
			return nil
		}
		d := findStep(cur, s)
		if d == nil {
			return nil
		}
		switch d.Kind {
		case KindFixed:
			cur = cur.Fixed(d)
			if cur == nil || !cur.Exists() {
				return nil
			}
		case KindCollection:
			items := cur.Collection(d)
			if s.Index >= len(items) {
				return nil
			}
			cur = items[s.Index]
		default:
			return nil
		}
	}
	return cur
}

func findStep(el Element, s Step) *Descriptor {
	for _, d := range el.Contract().slots {
		if !d.Kind.isTag() || d.Name != s.Name || childKey(el.NamespaceKey(), d) != s.NS {
			continue
		}
		if d.Kind == KindFixed && d.Index != s.Index {
			continue
		}
		return d
	}
	return nil
}

// ResolveAnchor replays a against the open file with the anchor's root id.
func (r *ReadAccess) ResolveAnchor(a Anchor) Element {
	r.check("resolve anchor")
	f, ok := r.m.FileByID(a.Root)
	if !ok {
		return nil
	}
	return a.Replay(f.root)
}
