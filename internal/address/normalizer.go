// Package address canonicalizes free-text listing addresses into a
// comparable form. Listings for the same building arrive spelled a dozen
// ways ("Via Roma 10", "v. roma, 10", "VIA ROMA n.10"); the normalizer maps
// them all onto one key so the dedupe scan can compare them.
package address

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalized is the comparable form of a raw address. It is derived on
// demand and never persisted on its own.
type Normalized struct {
	Street      string
	HouseNumber string
	City        string
	// Display holds the cleaned original text, used verbatim when no
	// structured components could be extracted.
	Display string
}

// Key returns the identity string used for canonical-record matching.
func (n Normalized) Key() string {
	if n.Street == "" {
		return n.Display
	}
	if n.HouseNumber == "" {
		return n.Street
	}
	return n.Street + " " + n.HouseNumber
}

// streetAbbreviations maps common Italian street-type abbreviations
// (dot-stripped, lower-case) to their expanded form.
var streetAbbreviations = map[string]string{
	"v":    "via",
	"vle":  "viale",
	"vl":   "viale",
	"cso":  "corso",
	"pza":  "piazza",
	"pzza": "piazza",
	"lgo":  "largo",
	"str":  "strada",
	"vic":  "vicolo",
	"loc":  "localita",
	"fraz": "frazione",
}

// Normalize canonicalizes a raw address and optional city. It never fails:
// when nothing structured can be extracted the cleaned original text is
// carried in Display and used as the comparison key.
func Normalize(raw, city string) Normalized {
	n := Normalized{City: clean(city)}

	lowered := foldDiacritics(strings.ToLower(strings.TrimSpace(raw)))
	if lowered == "" {
		return n
	}

	tokens := strings.Fields(strings.ReplaceAll(lowered, ",", " "))
	expanded := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		hasDot := strings.Contains(tok, ".")
		stripped := cleanToken(tok)
		if stripped == "" {
			continue
		}
		// Expand dotted street-type abbreviations ("v.", "c.so", "p.zza");
		// dotless ones only in leading position, so a lone letter inside a
		// name is left alone.
		if full, ok := streetAbbreviations[stripped]; ok && (hasDot || len(expanded) == 0) {
			expanded = append(expanded, strings.Fields(full)...)
			continue
		}
		expanded = append(expanded, stripped)
	}

	n.Display = strings.Join(expanded, " ")
	street, number := splitHouseNumber(expanded)
	n.Street = strings.Join(street, " ")
	n.HouseNumber = number
	return n
}

// foldDiacritics strips combining marks: "cefalù" becomes "cefalu".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// cleanToken drops everything but letters, digits and the subunit
// separator ("10/a").
func cleanToken(tok string) string {
	var b strings.Builder
	b.Grow(len(tok))
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// clean normalizes a city name for comparison purposes.
func clean(s string) string {
	lowered := foldDiacritics(strings.ToLower(strings.TrimSpace(s)))
	fields := strings.Fields(strings.ReplaceAll(lowered, ",", " "))
	cleaned := make([]string, 0, len(fields))
	for _, f := range fields {
		if c := cleanToken(f); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return strings.Join(cleaned, " ")
}

// splitHouseNumber pulls a trailing house number out of the token list.
// Handles "via roma 10", "via roma 10/a" and the "n 10" / "nr 10" forms.
func splitHouseNumber(tokens []string) ([]string, string) {
	if len(tokens) < 2 {
		return tokens, ""
	}

	last := tokens[len(tokens)-1]
	if !startsWithDigit(last) {
		return tokens, ""
	}

	street := tokens[:len(tokens)-1]
	// Drop a civic-number marker preceding the digits.
	if len(street) > 0 {
		switch street[len(street)-1] {
		case "n", "nr", "num", "numero", "civico":
			street = street[:len(street)-1]
		}
	}
	if len(street) == 0 {
		return tokens, ""
	}
	return street, last
}

func startsWithDigit(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}
