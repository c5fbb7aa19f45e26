// Package codec provides ready-made converters for common value formats:
// RFC 3339 timestamps, closed string enumerations and delimited lists.
//
// Converters are plain xdom.Converter values. Install them per type with
// xdom.RegisterConverter or by name with Install, after which struct tags
// can select them with converter=name.
package codec
