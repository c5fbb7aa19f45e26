package xdom

import (
	"context"
	"reflect"

	"github.com/reoring/xdom/i18n"
)

// ConvertContext is passed to converters. It exposes the element that owns
// the value being converted and the context of the calling operation.
type ConvertContext struct {
	ctx context.Context
	el  Element
	err error
}

func newConvertContext(ctx context.Context, el Element) *ConvertContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ConvertContext{ctx: ctx, el: el}
}

// NewConvertContext builds a context for calling converters outside of a
// bound handle (tests, tooling).
func NewConvertContext(ctx context.Context, el Element) *ConvertContext {
	return newConvertContext(ctx, el)
}

// Context returns the context of the calling operation. Services installed
// with WithService are reachable through it.
func (cc *ConvertContext) Context() context.Context {
	if cc == nil || cc.ctx == nil {
		return context.Background()
	}
	return cc.ctx
}

// Element returns the element owning the converted value (may be nil).
func (cc *ConvertContext) Element() Element {
	if cc == nil {
		return nil
	}
	return cc.el
}

// File returns the file of the owning element.
func (cc *ConvertContext) File() *File {
	if el := cc.Element(); el != nil {
		return el.File()
	}
	return nil
}

// Err reports a failure that prevented conversion from completing, such as
// an aborted resolution walk. Converters never return errors directly.
func (cc *ConvertContext) Err() error {
	if cc == nil {
		return nil
	}
	return cc.err
}

// Fail records err on the context. The first recorded error wins.
func (cc *ConvertContext) Fail(err error) {
	if cc != nil && cc.err == nil {
		cc.err = err
	}
}

// Converter maps between document text and typed values. FromString never
// fails hard: unrecognized text yields ok=false and ErrorMessage explains why.
// ToString returning ok=false means the value has no textual form and the
// node or attribute is deleted on write.
type Converter[T any] interface {
	FromString(text string, cc *ConvertContext) (T, bool)
	ToString(v T, cc *ConvertContext) (string, bool)
	ErrorMessage(text string, cc *ConvertContext) string
}

// ResolvingConverter additionally enumerates every value currently valid in
// the converter's scope. Used for lookup and completion.
type ResolvingConverter[T any] interface {
	Converter[T]
	Variants(cc *ConvertContext) []T
}

// AnyConverter is the type-erased form of a converter stored on descriptors.
type AnyConverter struct {
	typ          reflect.Type
	fromString   func(string, *ConvertContext) (any, bool)
	toString     func(any, *ConvertContext) (string, bool)
	errorMessage func(string, *ConvertContext) string
	variants     func(*ConvertContext) []any
	reference    *Contract
}

// ConverterOf erases a typed converter. Resolving converters keep their
// Variants.
func ConverterOf[T any](c Converter[T]) *AnyConverter {
	a := &AnyConverter{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		fromString: func(s string, cc *ConvertContext) (any, bool) {
			return c.FromString(s, cc)
		},
		toString: func(v any, cc *ConvertContext) (string, bool) {
			tv, ok := v.(T)
			if !ok {
				return "", false
			}
			return c.ToString(tv, cc)
		},
		errorMessage: c.ErrorMessage,
	}
	if rc, ok := c.(ResolvingConverter[T]); ok {
		a.variants = func(cc *ConvertContext) []any {
			vs := rc.Variants(cc)
			out := make([]any, len(vs))
			for i, v := range vs {
				out[i] = v
			}
			return out
		}
	}
	return a
}

// FuncConverter builds a converter from closures. A nil message function
// falls back to the unrecognized_value message.
func FuncConverter[T any](from func(string) (T, bool), to func(T) (string, bool), message func(string) string) Converter[T] {
	return funcConverter[T]{from: from, to: to, message: message}
}

type funcConverter[T any] struct {
	from    func(string) (T, bool)
	to      func(T) (string, bool)
	message func(string) string
}

func (f funcConverter[T]) FromString(s string, _ *ConvertContext) (T, bool) { return f.from(s) }
func (f funcConverter[T]) ToString(v T, _ *ConvertContext) (string, bool)   { return f.to(v) }
func (f funcConverter[T]) ErrorMessage(s string, _ *ConvertContext) string {
	if f.message != nil {
		return f.message(s)
	}
	return unrecognizedMessage(s)
}

// Type returns the value type the converter produces.
func (a *AnyConverter) Type() reflect.Type {
	if a == nil {
		return nil
	}
	return a.typ
}

// FromString converts text to a value.
func (a *AnyConverter) FromString(s string, cc *ConvertContext) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.fromString(s, cc)
}

// ToString converts a value to text.
func (a *AnyConverter) ToString(v any, cc *ConvertContext) (string, bool) {
	if a == nil || v == nil {
		return "", false
	}
	return a.toString(v, cc)
}

// ErrorMessage explains why s was not recognized.
func (a *AnyConverter) ErrorMessage(s string, cc *ConvertContext) string {
	if a == nil || a.errorMessage == nil {
		return unrecognizedMessage(s)
	}
	return a.errorMessage(s, cc)
}

// Resolving reports whether the converter enumerates variants.
func (a *AnyConverter) Resolving() bool { return a != nil && a.variants != nil }

// Variants enumerates the values valid in scope; nil for plain converters.
func (a *AnyConverter) Variants(cc *ConvertContext) []any {
	if !a.Resolving() {
		return nil
	}
	return a.variants(cc)
}

// Reference returns the target contract of a name-resolving converter.
func (a *AnyConverter) Reference() *Contract {
	if a == nil {
		return nil
	}
	return a.reference
}

func unrecognizedMessage(s string) string {
	return i18n.T(CodeUnrecognizedValue, map[string]string{"value": s})
}
