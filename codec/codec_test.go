package codec_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/codec"
	"github.com/reoring/xdom/xmltree"
)

func TestTimeRFC3339_RoundTrip(t *testing.T) {
	c := codec.TimeRFC3339()

	got, ok := c.FromString("2025-01-01T09:00:00+09:00", nil)
	if !ok {
		t.Fatal("expected offset timestamp to parse")
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	out, ok := c.ToString(got, nil)
	if !ok || out != "2025-01-01T00:00:00Z" {
		t.Fatalf("ToString = %q, %v", out, ok)
	}

	if _, ok := c.FromString("2025-01-01T00:00:00.250Z", nil); !ok {
		t.Fatal("fractional seconds should parse")
	}
	if _, ok := c.ToString(time.Time{}, nil); ok {
		t.Fatal("zero time must have no textual form")
	}
}

func TestTimeRFC3339_Rejects(t *testing.T) {
	c := codec.TimeRFC3339()
	if _, ok := c.FromString("yesterday", nil); ok {
		t.Fatal("expected rejection")
	}
	msg := c.ErrorMessage("yesterday", nil)
	if !strings.HasPrefix(msg, "Cannot convert yesterday") || !strings.Contains(msg, "RFC 3339") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDate(t *testing.T) {
	c := codec.Date()
	d, ok := c.FromString("2024-02-29", nil)
	if !ok || d.Month() != time.February || d.Day() != 29 {
		t.Fatalf("FromString = %v, %v", d, ok)
	}
	if _, ok := c.FromString("2023-02-29", nil); ok {
		t.Fatal("invalid calendar date accepted")
	}
}

type color string

func TestEnum(t *testing.T) {
	c := codec.Enum([]color{"red", "green", "Blue"})
	if v, ok := c.FromString("green", nil); !ok || v != "green" {
		t.Fatalf("FromString(green) = %q, %v", v, ok)
	}
	if _, ok := c.FromString("GREEN", nil); ok {
		t.Fatal("case-sensitive enum accepted GREEN")
	}
	if _, ok := c.ToString("purple", nil); ok {
		t.Fatal("undeclared value must have no textual form")
	}
	if diff := cmp.Diff([]color{"red", "green", "Blue"}, c.Variants(nil)); diff != "" {
		t.Fatalf("variants (-want +got):\n%s", diff)
	}
	if msg := c.ErrorMessage("pink", nil); !strings.HasSuffix(msg, "expected one of red, green, Blue") {
		t.Fatalf("unexpected message %q", msg)
	}

	folded := codec.Enum([]color{"red", "Blue"}, codec.FoldCase())
	if v, ok := folded.FromString("BLUE", nil); !ok || v != "Blue" {
		t.Fatalf("folded FromString(BLUE) = %q, %v", v, ok)
	}
}

func TestDelimited(t *testing.T) {
	c := codec.Delimited[color](codec.Enum([]color{"red", "green"}), ",")

	got, ok := c.FromString(" red, green ,,red", nil)
	if !ok {
		t.Fatal("expected list to parse")
	}
	if diff := cmp.Diff([]color{"red", "green", "red"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if s, _ := c.ToString(got, nil); s != "red,green,red" {
		t.Fatalf("ToString = %q", s)
	}
	if _, ok := c.ToString(nil, nil); ok {
		t.Fatal("empty list must have no textual form")
	}
	if _, ok := c.FromString("red,blue", nil); ok {
		t.Fatal("expected rejection")
	}
	if msg := c.ErrorMessage("red,blue", nil); !strings.HasPrefix(msg, "Cannot convert blue") {
		t.Fatalf("message should name the rejected item: %q", msg)
	}
}

type Release struct {
	xdom.Node `xdom:"release"`

	Published xdom.Attr[time.Time] `xdom:"published,converter=rfc3339"`
	Day       xdom.Leaf[time.Time] `xdom:",converter=date"`
	Colors    xdom.Leaf[[]color]
}

func TestInstall_TagsSelectNamedConverters(t *testing.T) {
	r := xdom.NewRegistry()
	codec.Install(r)
	xdom.RegisterConverter(r, codec.Delimited[color](codec.Enum([]color{"red", "green"}), " "))

	desc, err := xdom.NewDescription[Release](r)
	if err != nil {
		t.Fatal(err)
	}
	m := xdom.NewManager(xdom.WithDescriptions(desc))
	doc, err := xmltree.ParseString(`<release published="2025-03-01T12:00:00Z"><day>2025-03-02</day><colors>red green</colors></release>`)
	if err != nil {
		t.Fatal(err)
	}
	f, err := m.Open(doc)
	if err != nil {
		t.Fatal(err)
	}

	err = m.Write(context.Background(), func(w *xdom.WriteAccess) error {
		rel := xdom.Root[Release](w, f)
		if got := rel.Published.Get(); got.Hour() != 12 {
			t.Errorf("published = %v", got)
		}
		if got := rel.Day.Get(); got.Day() != 2 {
			t.Errorf("day = %v", got)
		}
		if diff := cmp.Diff([]color{"red", "green"}, rel.Colors.Get()); diff != "" {
			t.Errorf("colors (-want +got):\n%s", diff)
		}
		rel.Day.Set(w, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
		rel.Colors.Set(w, nil)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	root := doc.Root()
	if got := doc.Text(doc.Children(root)[0]); got != "2026-01-05" {
		t.Fatalf("day text = %q", got)
	}
	if n := len(doc.Children(root)); n != 1 {
		t.Fatalf("empty color list should remove its node, children = %d", n)
	}
}
