// Package phone normalizes the wildly inconsistent number spellings devices
// report into one canonical form per conversation identity.
package phone

import "strings"

// Canonicalize reduces a raw phone number to its canonical form under the
// given country. It is pure and total: garbage in yields a stripped-as-possible
// string out, never an error, so callers can always compare results for
// equality. It is also idempotent: a canonical form maps to itself.
func Canonicalize(country, raw string) string {
	pn := stripNoise(raw)

	// International "00" prefix is the same thing as "+".
	if strings.HasPrefix(pn, "00") {
		pn = "+" + pn[2:]
	}

	code, ok := DialingCode(country)
	if !ok {
		return pn
	}

	// A single leading zero is the national dialing prefix.
	if len(pn) > 1 && pn[0] == '0' && pn[1] != '0' {
		pn = code + pn[1:]
	}
	return pn
}

func stripNoise(pn string) string {
	var b strings.Builder
	b.Grow(len(pn))
	for _, r := range pn {
		switch r {
		case ' ', '\t', '.', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
