package xdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitWords(t *testing.T) {
	cases := map[string][]string{
		"BookTitle":     {"Book", "Title"},
		"XMLParser":     {"XML", "Parser"},
		"ISBN":          {"ISBN"},
		"snake_case":    {"snake", "case"},
		"already-kebab": {"already", "kebab"},
		"":              nil,
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, splitWords(in)); diff != "" {
			t.Errorf("splitWords(%q) (-want +got):\n%s", in, diff)
		}
	}
}

func TestSlotName(t *testing.T) {
	cases := []struct {
		s          NameStrategy
		field      string
		collection bool
		want       string
	}{
		{HyphenNames, "BookTitle", false, "book-title"},
		{CamelNames, "BookTitle", false, "bookTitle"},
		{HyphenNames, "GetTitle", false, "title"},
		{HyphenNames, "IsEnabled", false, "enabled"},
		{HyphenNames, "Issue", false, "issue"},
		{HyphenNames, "Books", true, "book"},
		{HyphenNames, "Entries", true, "entry"},
		{HyphenNames, "Addresses", true, "address"},
		{HyphenNames, "Boxes", true, "box"},
		{HyphenNames, "Branches", true, "branch"},
		{HyphenNames, "Houses", true, "house"},
		{HyphenNames, "Status", true, "status"},
		{CamelNames, "ChildNodes", true, "childNode"},
		{HyphenNames, "Books", false, "books"},
	}
	for _, tc := range cases {
		if got := slotName(tc.s, tc.field, tc.collection); got != tc.want {
			t.Errorf("slotName(%q, collection=%v) = %q, want %q", tc.field, tc.collection, got, tc.want)
		}
	}
}
