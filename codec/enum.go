package codec

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/i18n"
)

// EnumOption configures Enum.
type EnumOption func(*enumConfig)

type enumConfig struct {
	fold bool
}

// FoldCase matches input ignoring case. Output always uses the declared
// spelling.
func FoldCase() EnumOption { return func(c *enumConfig) { c.fold = true } }

// Enum accepts exactly the listed values. It is a resolving converter:
// Variants enumerates the values in declaration order.
func Enum[T ~string](values []T, opts ...EnumOption) xdom.ResolvingConverter[T] {
	var cfg enumConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &enumConverter[T]{values: slices.Clone(values), fold: cfg.fold}
}

type enumConverter[T ~string] struct {
	values []T
	fold   bool
}

func (e *enumConverter[T]) FromString(s string, _ *xdom.ConvertContext) (T, bool) {
	for _, v := range e.values {
		if string(v) == s {
			return v, true
		}
	}
	if e.fold {
		// a Caser is stateful, so each lookup gets its own
		folder := cases.Fold()
		key := folder.String(s)
		for _, v := range e.values {
			if folder.String(string(v)) == key {
				return v, true
			}
		}
	}
	return "", false
}

func (e *enumConverter[T]) ToString(v T, _ *xdom.ConvertContext) (string, bool) {
	if !slices.Contains(e.values, v) {
		return "", false
	}
	return string(v), true
}

func (e *enumConverter[T]) ErrorMessage(s string, _ *xdom.ConvertContext) string {
	names := make([]string, len(e.values))
	for i, v := range e.values {
		names[i] = string(v)
	}
	return i18n.T(xdom.CodeUnrecognizedValue, map[string]string{"value": s}) +
		": expected one of " + strings.Join(names, ", ")
}

func (e *enumConverter[T]) Variants(_ *xdom.ConvertContext) []T { return slices.Clone(e.values) }
