package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a student name for comparison (lowercase, no
// diacritics, spaces for dashes). Manual-entry lookups normalize both sides
// so "jan-novak" matches "Jan Novák".
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// FindByName returns the student whose normalized name matches, or nil.
// Returns nil as well when two students share the normalized name, since an
// ambiguous name must never resolve to an arbitrary pick.
func FindByName(students map[string]Student, name string) *Student {
	want := NormalizeName(name)
	var found *Student
	for id := range students {
		s := students[id]
		if NormalizeName(s.Name) == want {
			if found != nil {
				return nil
			}
			found = &s
		}
	}
	return found
}
