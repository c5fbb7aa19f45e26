package xdom

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeOf((*time.Duration)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// builtinConverter returns the converter for primitive kinds, durations and
// encoding.Text(Un)Marshaler implementations, or nil.
func builtinConverter(t reflect.Type) *AnyConverter {
	if t == nil {
		return nil
	}
	if t == durationType {
		return durationConverter()
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return textConverter(t)
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindConverter(t)
	}
	return nil
}

// kindConverter handles primitive kinds, including named types such as
// `type Year int`.
func kindConverter(t reflect.Type) *AnyConverter {
	return &AnyConverter{
		typ: t,
		fromString: func(s string, _ *ConvertContext) (any, bool) {
			rv, ok := parseKind(t, s)
			if !ok {
				return nil, false
			}
			return rv.Interface(), true
		},
		toString: func(v any, _ *ConvertContext) (string, bool) {
			rv := reflect.ValueOf(v)
			if rv.Type() != t {
				return "", false
			}
			return formatKind(rv), true
		},
	}
}

func parseKind(t reflect.Type, s string) (reflect.Value, bool) {
	rv := reflect.New(t).Elem()
	if t.Kind() != reflect.String {
		s = strings.TrimSpace(s)
	}
	switch t.Kind() {
	case reflect.String:
		rv.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return rv, false
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return rv, false
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return rv, false
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return rv, false
		}
		rv.SetFloat(f)
	default:
		return rv, false
	}
	return rv, true
}

func formatKind(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	}
	return ""
}

func durationConverter() *AnyConverter {
	return ConverterOf[time.Duration](FuncConverter(
		func(s string) (time.Duration, bool) {
			d, err := time.ParseDuration(strings.TrimSpace(s))
			return d, err == nil
		},
		func(d time.Duration) (string, bool) { return d.String(), true },
		nil,
	))
}

// textConverter adapts types implementing encoding.TextUnmarshaler. Values
// without MarshalText have no textual form, so writing them deletes the node.
func textConverter(t reflect.Type) *AnyConverter {
	return &AnyConverter{
		typ: t,
		fromString: func(s string, _ *ConvertContext) (any, bool) {
			pv := reflect.New(t)
			if err := pv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, false
			}
			return pv.Elem().Interface(), true
		},
		toString: func(v any, _ *ConvertContext) (string, bool) {
			if m, ok := v.(encoding.TextMarshaler); ok {
				b, err := m.MarshalText()
				return string(b), err == nil
			}
			pv := reflect.New(t)
			pv.Elem().Set(reflect.ValueOf(v))
			if m, ok := pv.Interface().(encoding.TextMarshaler); ok {
				b, err := m.MarshalText()
				return string(b), err == nil
			}
			return "", false
		},
	}
}

// builtinNamed are the converters reachable by name from struct tags
// (converter=...) and contract specs.
func builtinNamed() map[string]*AnyConverter {
	return map[string]*AnyConverter{
		"string":   kindConverter(reflect.TypeOf((*string)(nil)).Elem()),
		"bool":     kindConverter(reflect.TypeOf((*bool)(nil)).Elem()),
		"int":      kindConverter(reflect.TypeOf((*int)(nil)).Elem()),
		"int64":    kindConverter(reflect.TypeOf((*int64)(nil)).Elem()),
		"uint":     kindConverter(reflect.TypeOf((*uint)(nil)).Elem()),
		"float":    kindConverter(reflect.TypeOf((*float64)(nil)).Elem()),
		"duration": durationConverter(),
	}
}
