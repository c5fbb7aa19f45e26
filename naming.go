package xdom

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameStrategy derives XML names from Go identifiers.
type NameStrategy interface {
	// SplitIntoWords tokenizes an identifier ("BookTitle" -> ["Book", "Title"]).
	SplitIntoWords(name string) []string
	// ElementName joins words into a tag or attribute name.
	ElementName(words []string) string
}

var (
	// HyphenNames joins lowercase words with '-' ("BookTitle" -> "book-title").
	HyphenNames NameStrategy = hyphenNames{}
	// CamelNames produces lower camel case ("BookTitle" -> "bookTitle").
	CamelNames NameStrategy = camelNames{}
)

type hyphenNames struct{}

func (hyphenNames) SplitIntoWords(name string) []string { return splitWords(name) }

func (hyphenNames) ElementName(words []string) string {
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, lower.String(w))
	}
	return strings.Join(out, "-")
}

type camelNames struct{}

func (camelNames) SplitIntoWords(name string) []string { return splitWords(name) }

func (camelNames) ElementName(words []string) string {
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)
	b := strings.Builder{}
	for i, w := range words {
		if i == 0 {
			b.WriteString(lower.String(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

var accessorPrefixes = []string{"Get", "Is", "Has", "Set"}

// stripAccessorPrefix removes a leading Get/Is/Has/Set when it is followed by
// another word ("GetTitle" -> "Title", "Issue" stays).
func stripAccessorPrefix(name string) string {
	for _, p := range accessorPrefixes {
		if len(name) > len(p) && strings.HasPrefix(name, p) && unicode.IsUpper(rune(name[len(p)])) {
			return name[len(p):]
		}
	}
	return name
}

// slotName computes the default XML name of a contract field.
func slotName(s NameStrategy, field string, collection bool) string {
	if s == nil {
		s = HyphenNames
	}
	words := s.SplitIntoWords(stripAccessorPrefix(field))
	if len(words) == 0 {
		return ""
	}
	if collection {
		words[len(words)-1] = unpluralize(words[len(words)-1])
	}
	return s.ElementName(words)
}

// unpluralize turns a plural English word into its singular form for the
// common regular cases.
func unpluralize(w string) string {
	lw := strings.ToLower(w)
	switch {
	case strings.HasSuffix(lw, "ies") && len(w) > 3:
		return w[:len(w)-3] + matchCase(w[len(w)-3:], "y")
	case strings.HasSuffix(lw, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(lw, "ss"), strings.HasSuffix(lw, "us"):
		return w
	case strings.HasSuffix(lw, "xes"), strings.HasSuffix(lw, "ches"), strings.HasSuffix(lw, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(lw, "s") && len(w) > 1:
		return w[:len(w)-1]
	}
	return w
}

func matchCase(ref, s string) string {
	if strings.ToUpper(ref) == ref {
		return strings.ToUpper(s)
	}
	return s
}

// splitWords splits camel case identifiers, keeping acronyms together
// ("XMLParser" -> ["XML", "Parser"]). '_' and '-' separate words too.
func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	var (
		words []string
		cur   strings.Builder
	)
	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		}
		if i > 0 && cur.Len() > 0 && startsWord(runes, i) {
			words = append(words, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if unicode.IsUpper(r) && !unicode.IsUpper(prev) {
		return true
	}
	// end of acronym: "XMLParser" splits before 'P'
	return unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
