package xdom_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/xmltree"
)

type NoNode struct {
	Title xdom.Leaf[string]
}

type PlainField struct {
	xdom.Node
	Title xdom.Leaf[string]
	Count int
}

type DuplicateNames struct {
	xdom.Node
	Title xdom.Leaf[string]
	Head  xdom.Leaf[string] `xdom:"title"`
}

type FixedAndCollection struct {
	xdom.Node
	Item  xdom.Leaf[string]
	Items xdom.Values[string]
}

type Unconvertible struct {
	xdom.Node
	Ch xdom.Leaf[chan int]
}

type BadTag struct {
	xdom.Node
	Title xdom.Leaf[string] `xdom:",bogus=1"`
}

type TwoNameValues struct {
	xdom.Node
	A xdom.Leaf[string] `xdom:",namevalue"`
	B xdom.Leaf[string] `xdom:",namevalue"`
}

type GoodWithBadChild struct {
	xdom.Node
	Child xdom.Child[PlainField]
}

type Shape interface {
	Area() float64
}

type Drawing struct {
	xdom.Node `xdom:"drawing"`

	Shapes xdom.Children[Shape]
	Main   xdom.Child[Shape]
}

type Circle struct {
	xdom.Node
	Radius xdom.Attr[float64] `xdom:"radius"`
}

func (c Circle) Area() float64 { r := c.Radius.Get(); return 3 * r * r }

type Square struct {
	xdom.Node
	Side xdom.Attr[float64] `xdom:"side"`
}

func (s Square) Area() float64 { return s.Side.Get() * s.Side.Get() }

type Tagged struct {
	xdom.Node `xdom:"tagged"`

	Ignored   string `xdom:"-"`
	GetTitle  xdom.Leaf[string]
	IsEnabled xdom.Attr[bool]
	Entries   xdom.Values[string]
	Custom    xdom.Leaf[string] `xdom:"name=x-custom"`
	Rank      xdom.Leaf[int]    `xdom:"rank,converter=int"`
	Body      xdom.Text[string]
	internal  int
}

func TestRegister_RejectsInvalidContracts(t *testing.T) {
	cases := []struct {
		name string
		typ  reflect.Type
		code string
		path string
	}{
		{"no embedded node", reflect.TypeOf((*NoNode)(nil)).Elem(), xdom.CodeInvalidContract, "/xdom_test.NoNode"},
		{"plain field", reflect.TypeOf((*PlainField)(nil)).Elem(), xdom.CodeUnknownSlot, "/xdom_test.PlainField/Count"},
		{"duplicate names", reflect.TypeOf((*DuplicateNames)(nil)).Elem(), xdom.CodeDuplicateName, "/xdom_test.DuplicateNames/Head"},
		{"fixed and collection", reflect.TypeOf((*FixedAndCollection)(nil)).Elem(), xdom.CodeDuplicateName, "/xdom_test.FixedAndCollection/Items"},
		{"unconvertible", reflect.TypeOf((*Unconvertible)(nil)).Elem(), xdom.CodeInvalidContract, "/xdom_test.Unconvertible/Ch"},
		{"bad tag", reflect.TypeOf((*BadTag)(nil)).Elem(), xdom.CodeInvalidContract, "/xdom_test.BadTag/Title"},
		{"two name values", reflect.TypeOf((*TwoNameValues)(nil)).Elem(), xdom.CodeDuplicateName, "/xdom_test.TwoNameValues/B"},
		{"interface without chooser", reflect.TypeOf((*Shape)(nil)).Elem(), xdom.CodeInvalidContract, "/xdom_test.Shape"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := xdom.NewRegistry()
			_, err := r.Register(tc.typ)
			iss, ok := xdom.AsIssues(err)
			require.True(t, ok, "expected Issues, got %v", err)
			require.Equal(t, tc.code, iss[0].Code)
			require.Equal(t, tc.path, iss[0].Path)
			_, found := r.Lookup(tc.typ)
			require.False(t, found)
		})
	}
}

func TestRegister_FailureRollsBackNestedContracts(t *testing.T) {
	r := xdom.NewRegistry()
	_, err := xdom.Register[GoodWithBadChild](r)
	require.Error(t, err)
	_, found := r.Lookup(reflect.TypeOf((*PlainField)(nil)).Elem())
	require.False(t, found)
	_, found = r.Lookup(reflect.TypeOf((*GoodWithBadChild)(nil)).Elem())
	require.False(t, found)
}

func TestRegister_IsIdempotentAndDerivesNames(t *testing.T) {
	r := xdom.NewRegistry()
	c1 := xdom.MustRegister[Tagged](r)
	c2, err := xdom.ContractOf[Tagged](r)
	require.NoError(t, err)
	require.Same(t, c1, c2)

	names := map[string]string{}
	kinds := map[string]xdom.Kind{}
	for _, d := range c1.Descriptors() {
		names[d.Field] = d.Name
		kinds[d.Field] = d.Kind
	}
	require.Equal(t, map[string]string{
		"GetTitle":  "title",
		"IsEnabled": "enabled",
		"Entries":   "entry",
		"Custom":    "x-custom",
		"Rank":      "rank",
		"Body":      "",
	}, names)
	require.Equal(t, xdom.KindAttribute, kinds["IsEnabled"])
	require.Equal(t, xdom.KindCollection, kinds["Entries"])
	require.Equal(t, xdom.KindText, kinds["Body"])
	require.Equal(t, "tagged", c1.Name())
	require.Same(t, c1.Slot("Body"), c1.TextDescriptor())
	require.Nil(t, c1.Slot("Ignored"))
}

func TestRegister_CamelNames(t *testing.T) {
	r := xdom.NewRegistry(xdom.WithNaming(xdom.CamelNames))
	c := xdom.MustRegister[Tagged](r)
	require.Equal(t, "title", c.Slot("GetTitle").Name)
	require.Equal(t, "enabled", c.Slot("IsEnabled").Name)

	type BookTitle struct {
		xdom.Node
		ReleaseDate xdom.Leaf[string]
	}
	bt := xdom.MustRegister[BookTitle](r)
	require.Equal(t, "bookTitle", bt.Name())
	require.Equal(t, "releaseDate", bt.Slot("ReleaseDate").Name)
}

func TestRegisterConverter_AppliesToLaterContracts(t *testing.T) {
	type Level int
	type Entry struct {
		xdom.Node `xdom:"entry"`

		Level xdom.Attr[Level] `xdom:"level"`
	}
	r := xdom.NewRegistry()
	levels := []string{"low", "mid", "high"}
	xdom.RegisterConverter[Level](r, xdom.FuncConverter(
		func(s string) (Level, bool) {
			for i, l := range levels {
				if l == s {
					return Level(i), true
				}
			}
			return 0, false
		},
		func(l Level) (string, bool) {
			if int(l) < 0 || int(l) >= len(levels) {
				return "", false
			}
			return levels[l], true
		},
		func(s string) string { return "unknown level " + s },
	))
	desc, err := xdom.NewDescription[Entry](r)
	require.NoError(t, err)
	m := xdom.NewManager(xdom.WithDescriptions(desc))
	doc, err := xmltree.ParseString(`<entry level="mid"/>`)
	require.NoError(t, err)
	f, err := m.Open(doc)
	require.NoError(t, err)

	fx := &fixture{reg: r, desc: desc, m: m}
	fx.write(t, func(w *xdom.WriteAccess) {
		e := xdom.Root[Entry](w, f)
		require.Equal(t, Level(1), e.Level.Get())

		e.Level.Set(w, Level(2))
		s, _ := e.Level.StringValue()
		require.Equal(t, "high", s)

		// a value without textual form deletes the attribute
		e.Level.Set(w, Level(7))
		require.False(t, e.Level.Exists())

		e.Level.SetString(w, "max")
		_, err := e.Level.Resolve(w.Context())
		iss, ok := xdom.AsIssues(err)
		require.True(t, ok)
		require.Equal(t, "unknown level max", iss[0].Message)
	})
}

func registerShapes(t *testing.T) *xdom.Registry {
	t.Helper()
	r := xdom.NewRegistry()
	xdom.RegisterChooser[Shape](r, xdom.AttributeVariants("kind",
		xdom.VariantOf[Circle]("circle"),
		xdom.VariantOf[Square]("square")))
	return r
}

func TestChooser_PicksVariantByDiscriminator(t *testing.T) {
	r := registerShapes(t)
	desc, err := xdom.NewDescription[Drawing](r)
	require.NoError(t, err)
	m := xdom.NewManager(xdom.WithDescriptions(desc))
	doc, err := xmltree.ParseString(`<drawing><shape kind="square" side="2"/><shape radius="1"/><shape kind="hexagon" radius="2"/></drawing>`)
	require.NoError(t, err)
	f, err := m.Open(doc)
	require.NoError(t, err)

	circle := xdom.MustRegister[Circle](r)
	square := xdom.MustRegister[Square](r)
	shape := xdom.MustRegister[Shape](r)
	require.True(t, shape.Abstract())
	require.Equal(t, []*xdom.Contract{circle, square}, shape.Variants())
	require.True(t, square.IsA(shape))

	fx := &fixture{reg: r, desc: desc, m: m}
	fx.write(t, func(w *xdom.WriteAccess) {
		d := xdom.Root[Drawing](w, f)
		shapes := d.Shapes.Get()
		require.Len(t, shapes, 3)
		require.IsType(t, Square{}, shapes[0])
		require.IsType(t, Circle{}, shapes[1])
		require.IsType(t, Circle{}, shapes[2], "unknown discriminators fall back to the default variant")
		require.Equal(t, 4.0, shapes[0].Area())
		require.Equal(t, 3.0, shapes[1].Area())

		added := d.Shapes.AddAs(w, 1, square)
		sq, ok := added.(Square)
		require.True(t, ok)
		sq.Side.Set(w, 3)
		d.Shapes.Append(w)

		doc := f.Document()
		kids := doc.Children(doc.Root())
		kind, _ := doc.Attr(kids[1], xmltree.Name{Local: "kind"})
		require.Equal(t, "square", kind)
		kind, _ = doc.Attr(kids[len(kids)-1], xmltree.Name{Local: "kind"})
		require.Equal(t, "circle", kind)

		main := d.Main.Get()
		require.IsType(t, Circle{}, main)
		d.Main.Ensure(w)
		require.True(t, d.Main.Exists())
	})
}

func TestDynamicContract_NavigatesThroughElementAPI(t *testing.T) {
	str := xdom.StringConverter()
	book := xdom.NewContract("book")
	book.Attribute("ID", str).Name("id")
	book.Leaf("Title", str).NameValue()
	bookC := book.MustBuild()

	row := xdom.NewContract("row")
	row.Leaf("First", str).Name("cell")
	row.Leaf("Second", str).Name("cell").Index(1)
	rowC := row.MustBuild()

	lib := xdom.NewContract("library")
	lib.Collection("Books", bookC)
	lib.Child("Row", rowC)
	lib.Leaf("Favorite", xdom.ReferenceConverter(bookC))
	libC, err := lib.Build()
	require.NoError(t, err)
	require.Nil(t, libC.GoType())

	m := xdom.NewManager(xdom.WithDescriptions(&xdom.Description{Root: libC}))
	doc := xmltree.New(xmltree.Name{Local: "library"})
	f, err := m.Open(doc)
	require.NoError(t, err)

	fx := &fixture{m: m}
	fx.write(t, func(w *xdom.WriteAccess) {
		root := w.Root(f)
		books := libC.Slot("Books")
		a := root.Add(w, books, -1)
		a.SetText(w, bookC.Slot("Title"), "A")
		a.SetText(w, bookC.Slot("ID"), "1")
		root.Add(w, books, -1).SetText(w, bookC.Slot("Title"), "B")
		root.SetText(w, libC.Slot("Favorite"), "B")

		r := root.Fixed(libC.Slot("Row"))
		r.SetText(w, rowC.Slot("Second"), "two")
		first, ok := r.Text(rowC.Slot("First"))
		require.True(t, ok, "preceding indexed siblings are materialized")
		require.Equal(t, "", first)
		second, _ := r.Text(rowC.Slot("Second"))
		require.Equal(t, "two", second)
		require.Equal(t, []string{"cell", "cell"}, childNames(doc, doc.Children(doc.Root())[2]))
		require.Equal(t, "/library/row/cell[1]", xdom.PathOf(r)+"/"+rowC.Slot("Second").String())

		conv := libC.Slot("Favorite").Converter()
		v, ok := conv.FromString("B", xdom.NewConvertContext(w.Context(), root))
		require.True(t, ok)
		require.True(t, xdom.Same(v.(xdom.Element), root.Collection(books)[1]))
		require.True(t, xdom.IsReferenceTo(root, libC.Slot("Favorite"), root.Collection(books)[1]))

		name, ok := xdom.NameOf(root.Collection(books)[0])
		require.True(t, ok)
		require.Equal(t, "A", name)
	})
}

func TestDynamicContract_BuildRejectsDuplicates(t *testing.T) {
	c := xdom.NewContract("x")
	c.Leaf("A", xdom.StringConverter()).Name("same")
	c.Leaf("B", xdom.StringConverter()).Name("same")
	_, err := c.Build()
	iss, ok := xdom.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, xdom.CodeDuplicateName, iss[0].Code)
	require.Equal(t, "/x/B", iss[0].Path)
}
