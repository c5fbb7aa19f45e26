package xdom_test

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/xmltree"
)

type Publisher struct {
	xdom.Node
	Name xdom.Attr[string] `xdom:"name,namevalue"`
	City xdom.Leaf[string]
}

type Book struct {
	xdom.Node
	ISBN      xdom.Attr[string] `xdom:"isbn"`
	Title     xdom.Leaf[string] `xdom:",namevalue"`
	Year      xdom.Leaf[int]
	Publisher xdom.Child[Publisher]
	Tags      xdom.Values[string]
	Sequel    xdom.Leaf[Book]
}

type Meta struct {
	xdom.Node
	Owner xdom.Leaf[string]
	Notes xdom.Values[string]
}

type Library struct {
	xdom.Node `xdom:"library"`

	Name     xdom.Attr[string] `xdom:"name"`
	Meta     xdom.Child[Meta]
	Books    xdom.Children[Book]
	Favorite xdom.Leaf[Book]
}

type fixture struct {
	reg  *xdom.Registry
	desc *xdom.Description
	m    *xdom.Manager
}

func newFixture(t *testing.T, opts ...xdom.ManagerOption) *fixture {
	t.Helper()
	r := xdom.NewRegistry()
	desc, err := xdom.NewDescription[Library](r)
	require.NoError(t, err)
	m := xdom.NewManager(append(opts, xdom.WithDescriptions(desc))...)
	return &fixture{reg: r, desc: desc, m: m}
}

func (fx *fixture) open(t *testing.T, src string, opts ...xmltree.Option) *xdom.File {
	t.Helper()
	doc, err := xmltree.ParseString(src, opts...)
	require.NoError(t, err)
	f, err := fx.m.Open(doc)
	require.NoError(t, err)
	return f
}

func (fx *fixture) write(t *testing.T, fn func(w *xdom.WriteAccess)) {
	t.Helper()
	err := fx.m.Write(context.Background(), func(w *xdom.WriteAccess) error {
		fn(w)
		return nil
	})
	require.NoError(t, err)
}

func (fx *fixture) read(t *testing.T, fn func(r *xdom.ReadAccess)) {
	t.Helper()
	err := fx.m.Read(context.Background(), func(r *xdom.ReadAccess) error {
		fn(r)
		return nil
	})
	require.NoError(t, err)
}

// childNames lists the local names of n's children.
func childNames(doc *xmltree.Document, n xmltree.NodeID) []string {
	var out []string
	for _, c := range doc.Children(n) {
		out = append(out, doc.Name(c).Local)
	}
	return out
}

func titles(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title.Get())
	}
	return out
}

// requireViolation runs fn and returns the *StructuralViolation it panics with.
func requireViolation(t *testing.T, fn func()) (sv *xdom.StructuralViolation) {
	t.Helper()
	defer func() {
		r := recover()
		v, ok := r.(*xdom.StructuralViolation)
		require.True(t, ok, "expected *StructuralViolation panic, got %s", spew.Sdump(r))
		sv = v
	}()
	fn()
	return nil
}
