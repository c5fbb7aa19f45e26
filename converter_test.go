package xdom_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/xdom"
)

type Currency string

type currencyTable map[Currency]bool

// currencyConverter validates codes against a table injected with
// xdom.WithService; without one every code is accepted.
type currencyConverter struct{}

func (currencyConverter) FromString(s string, cc *xdom.ConvertContext) (Currency, bool) {
	table, ok := xdom.Service[currencyTable](cc.Context())
	if ok && !table[Currency(s)] {
		return "", false
	}
	return Currency(s), s != ""
}

func (currencyConverter) ToString(c Currency, _ *xdom.ConvertContext) (string, bool) {
	return string(c), c != ""
}

func (currencyConverter) ErrorMessage(s string, _ *xdom.ConvertContext) string {
	return "unknown currency " + s
}

type Invoice struct {
	xdom.Node `xdom:"invoice"`

	Currency xdom.Leaf[Currency]
	Total    xdom.Leaf[float64]
}

func TestConverter_ReachesInjectedService(t *testing.T) {
	r := xdom.NewRegistry()
	xdom.RegisterConverter[Currency](r, currencyConverter{})
	desc, err := xdom.NewDescription[Invoice](r)
	require.NoError(t, err)
	fx := &fixture{reg: r, desc: desc, m: xdom.NewManager(xdom.WithDescriptions(desc))}
	f := fx.open(t, `<invoice><currency>XTS</currency><total>12.5</total></invoice>`)

	fx.read(t, func(ra *xdom.ReadAccess) {
		inv := xdom.Root[Invoice](ra, f)
		require.Equal(t, 12.5, inv.Total.Get())

		v, err := inv.Currency.Resolve(context.Background())
		require.NoError(t, err)
		require.Equal(t, Currency("XTS"), v)

		ctx := xdom.WithService(context.Background(), currencyTable{"JPY": true, "EUR": true})
		_, err = inv.Currency.Resolve(ctx)
		iss, ok := xdom.AsIssues(err)
		require.True(t, ok)
		require.Equal(t, xdom.CodeUnrecognizedValue, iss[0].Code)
		require.Equal(t, "unknown currency XTS", iss[0].Message)
		require.Equal(t, "/invoice/currency", iss[0].Path)
	})

	fx.write(t, func(w *xdom.WriteAccess) {
		inv := xdom.Root[Invoice](w, f)
		inv.Currency.Set(w, "")
		require.False(t, inv.Currency.Exists(), "a value without textual form deletes the node")
	})
}

func TestService_MissingOrMistyped(t *testing.T) {
	_, ok := xdom.Service[currencyTable](context.Background())
	require.False(t, ok)
	var none context.Context
	_, ok = xdom.Service[currencyTable](none)
	require.False(t, ok)

	ctx := xdom.WithService(context.Background(), 42)
	n, ok := xdom.Service[int](ctx)
	require.True(t, ok)
	require.Equal(t, 42, n)
	_, ok = xdom.Service[string](ctx)
	require.False(t, ok)
}

func TestFuncConverter_DefaultMessage(t *testing.T) {
	c := xdom.FuncConverter(
		func(s string) (bool, bool) { return s == "yes", s == "yes" || s == "no" },
		func(b bool) (string, bool) {
			if b {
				return "yes", true
			}
			return "no", true
		},
		nil,
	)
	v, ok := c.FromString("yes", nil)
	require.True(t, ok)
	require.True(t, v)
	_, ok = c.FromString("maybe", nil)
	require.False(t, ok)
	require.Equal(t, "Cannot convert maybe", c.ErrorMessage("maybe", nil))

	erased := xdom.ConverterOf(c)
	s, ok := erased.ToString(false, nil)
	require.True(t, ok)
	require.Equal(t, "no", s)
	_, ok = erased.ToString("not a bool", nil)
	require.False(t, ok)
}
