package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	assert := assert.New(t)

	t.Run("strips formatting noise", func(t *testing.T) {
		assert.Equal("+33123456789", Canonicalize("France", "+33 1 23 45 67 89"))
		assert.Equal("+33123456789", Canonicalize("France", "+33.1-23(45)67.89"))
	})

	t.Run("promotes national prefix", func(t *testing.T) {
		assert.Equal("+33123456789", Canonicalize("France", "0123456789"))
		assert.Equal("+447700900123", Canonicalize("United Kingdom", "07700 900123"))
	})

	t.Run("international 00 prefix", func(t *testing.T) {
		assert.Equal("+33123456789", Canonicalize("France", "0033123456789"))
		assert.Equal("+33123456789", Canonicalize("", "0033123456789"))
	})

	t.Run("variant spellings meet at one canonical form", func(t *testing.T) {
		a := Canonicalize("France", "+33 1 23 45 67 89")
		b := Canonicalize("France", "0123456789")
		assert.Equal(a, b)
	})

	t.Run("unknown country falls back to stripping", func(t *testing.T) {
		assert.Equal("0123456789", Canonicalize("", "01 23 45 67 89"))
		assert.Equal("0123456789", Canonicalize("Atlantis", "01 23 45 67 89"))
	})

	t.Run("total on garbage input", func(t *testing.T) {
		for _, input := range []string{"", " ", "abc", "++--..", "😀🍕", "short\tcode", "0"} {
			assert.NotPanics(func() { Canonicalize("France", input) })
		}
		assert.Equal("abc", Canonicalize("France", "a b c"))
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{"+33 1 23 45 67 89", "0123456789", "0033123456789", "garbage!", "SHORTCODE", ""}
		for _, input := range inputs {
			once := Canonicalize("France", input)
			assert.Equal(once, Canonicalize("France", once), "input %q", input)
		}
	})
}

func TestCountryTable(t *testing.T) {
	assert := assert.New(t)

	code, ok := DialingCode("France")
	assert.True(ok)
	assert.Equal("+33", code)

	_, ok = DialingCode("Atlantis")
	assert.False(ok)

	assert.True(IsValidCountry("Germany"))
	assert.False(IsValidCountry(""))
}
