package xdom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/xmltree"
)

const anchorLibrary = `<library>
	<book><title>A</title></book>
	<book><title>B</title><publisher name="P"><city>Osaka</city></publisher></book>
</library>`

func TestAnchor_SurvivesUnrelatedEdits(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(t, anchorLibrary)

	var a xdom.Anchor
	fx.read(t, func(r *xdom.ReadAccess) {
		b, _ := xdom.Root[Library](r, f).Books.At(1)
		var err error
		a, err = b.Publisher.Get().Anchor()
		require.NoError(t, err)
	})
	require.Equal(t, "/library/book[1]/publisher", a.String())
	require.Equal(t, f.ID(), a.Root)

	fx.write(t, func(w *xdom.WriteAccess) {
		lib := xdom.Root[Library](w, f)
		lib.Books.Append(w).Title.Set(w, "C")
		lib.Name.Set(w, "renamed")
		lib.Meta.Ensure(w).Owner.Set(w, "me")
		b0, _ := lib.Books.At(0)
		b0.Title.Set(w, "A2")
	})

	fx.read(t, func(r *xdom.ReadAccess) {
		el := r.ResolveAnchor(a)
		require.NotNil(t, el)
		pub := xdom.As[Publisher](el)
		require.Equal(t, "P", pub.Name.Get())
		require.Equal(t, "Osaka", pub.City.Get())

		b, _ := xdom.Root[Library](r, f).Books.At(1)
		require.True(t, xdom.Same(el, b.Publisher.Element()))
	})
}

func TestAnchor_JSONRoundTripAndReplace(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(t, anchorLibrary)

	var a xdom.Anchor
	fx.read(t, func(r *xdom.ReadAccess) {
		b, _ := xdom.Root[Library](r, f).Books.At(1)
		var err error
		a, err = xdom.NewAnchor(b.Element())
		require.NoError(t, err)
	})

	data, err := a.Marshal()
	require.NoError(t, err)
	back, err := xdom.ParseAnchor(data)
	require.NoError(t, err)
	if diff := cmp.Diff(a, back); diff != "" {
		t.Fatalf("anchor changed across JSON (-want +got):\n%s", diff)
	}

	// a reload keeps the file id, so anchors taken before it still resolve
	doc, err := xmltree.ParseString(f.Document().String())
	require.NoError(t, err)
	nf, err := fx.m.Replace(f, doc)
	require.NoError(t, err)

	fx.read(t, func(r *xdom.ReadAccess) {
		el := r.ResolveAnchor(back)
		require.NotNil(t, el)
		require.Same(t, nf, el.File())
		require.Equal(t, "B", xdom.As[Book](el).Title.Get())
	})
}

func TestAnchor_MissingStepYieldsNil(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(t, anchorLibrary)

	var a xdom.Anchor
	fx.read(t, func(r *xdom.ReadAccess) {
		b, _ := xdom.Root[Library](r, f).Books.At(1)
		var err error
		a, err = b.Publisher.Get().Anchor()
		require.NoError(t, err)
	})

	fx.write(t, func(w *xdom.WriteAccess) {
		b, _ := xdom.Root[Library](w, f).Books.At(1)
		b.Publisher.Undefine(w)
	})
	fx.read(t, func(r *xdom.ReadAccess) {
		require.Nil(t, r.ResolveAnchor(a))

		unknown := a
		unknown.Root = "no-such-file"
		require.Nil(t, r.ResolveAnchor(unknown))

		bogus := xdom.Anchor{Root: f.ID(), Steps: []xdom.Step{{Name: "shelf"}}}
		require.Nil(t, r.ResolveAnchor(bogus))
	})
}

func TestParseAnchor_RejectsMalformedInput(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{"steps":[]}`,
		`{"root":"r","steps":[{"name":"","index":0}]}`,
		`{"root":"r","steps":[{"name":"book","index":-1}]}`,
	} {
		_, err := xdom.ParseAnchor([]byte(in))
		iss, ok := xdom.AsIssues(err)
		require.True(t, ok, "input %s", in)
		require.Equal(t, xdom.CodeInvalidAnchor, iss[0].Code)
	}
}
