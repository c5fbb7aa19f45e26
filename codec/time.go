package codec

import (
	"time"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/i18n"
)

// TimeRFC3339 converts between RFC 3339 text and time.Time. Fractional
// seconds are optional on input; output is normalized to UTC.
func TimeRFC3339() xdom.Converter[time.Time] {
	return timeConverter{layout: time.RFC3339Nano, lenient: time.RFC3339, utc: true, hint: "RFC 3339 timestamp"}
}

// Date converts between calendar dates (2006-01-02) and time.Time.
func Date() xdom.Converter[time.Time] {
	return timeConverter{layout: time.DateOnly, hint: "date (YYYY-MM-DD)"}
}

type timeConverter struct {
	layout  string
	lenient string
	utc     bool
	hint    string
}

func (c timeConverter) FromString(s string, _ *xdom.ConvertContext) (time.Time, bool) {
	t, err := time.Parse(c.layout, s)
	if err != nil && c.lenient != "" {
		t, err = time.Parse(c.lenient, s)
	}
	return t, err == nil
}

func (c timeConverter) ToString(t time.Time, _ *xdom.ConvertContext) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	if c.utc {
		t = t.UTC()
	}
	return t.Format(c.layout), true
}

func (c timeConverter) ErrorMessage(s string, _ *xdom.ConvertContext) string {
	return i18n.T(xdom.CodeUnrecognizedValue, map[string]string{"value": s}) + ": expected " + c.hint
}
