package codec

import (
	"strings"

	"github.com/reoring/xdom"
)

// Delimited stores a list of values in a single text node or attribute,
// separated by sep. Items are trimmed; empty items are skipped. The whole
// value is rejected if any item is rejected by inner.
func Delimited[T any](inner xdom.Converter[T], sep string) xdom.Converter[[]T] {
	return delimited[T]{inner: inner, sep: sep}
}

type delimited[T any] struct {
	inner xdom.Converter[T]
	sep   string
}

func (d delimited[T]) items(s string) []string {
	var out []string
	for _, part := range strings.Split(s, d.sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (d delimited[T]) FromString(s string, cc *xdom.ConvertContext) ([]T, bool) {
	items := d.items(s)
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, ok := d.inner.FromString(it, cc)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// ToString writes nothing for an empty list so the node is removed.
func (d delimited[T]) ToString(vs []T, cc *xdom.ConvertContext) (string, bool) {
	if len(vs) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		s, ok := d.inner.ToString(v, cc)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, d.sep), true
}

// ErrorMessage reports the first rejected item.
func (d delimited[T]) ErrorMessage(s string, cc *xdom.ConvertContext) string {
	for _, it := range d.items(s) {
		if _, ok := d.inner.FromString(it, cc); !ok {
			return d.inner.ErrorMessage(it, cc)
		}
	}
	return d.inner.ErrorMessage(s, cc)
}
