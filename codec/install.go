package codec

import "github.com/reoring/xdom"

// Install registers the named converters of this package on r:
// "rfc3339" and "date".
func Install(r *xdom.Registry) {
	r.RegisterNamedConverter("rfc3339", xdom.ConverterOf(TimeRFC3339()))
	r.RegisterNamedConverter("date", xdom.ConverterOf(Date()))
}
