package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shanehull/promowatch/internal/scrape"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"midlove":       "MIDLOVE",
		"  Blessed26\n": "BLESSED26",
		" code ":        "CODE",
		"two words":     "TWO WORDS",
		"":              "",
	}

	for in, want := range tests {
		got := scrape.Normalize(in)
		assert.Equal(t, want, got, "Normalize(%q)", in)
		assert.Equal(t, got, scrape.Normalize(got), "Normalize not idempotent for %q", in)
	}
}

func TestValidCode(t *testing.T) {
	valid := []string{"ABCD", "MIDLOVE", "A1B2C3", "ABCDEFGHIJKLMNOPQRST"}
	invalid := []string{"", "ABC", "abcd", "AB-CD", "AB CD", "ABCDEFGHIJKLMNOPQRSTU", "ÀBCD"}

	for _, c := range valid {
		assert.True(t, scrape.ValidCode(c), c)
	}
	for _, c := range invalid {
		assert.False(t, scrape.ValidCode(c), c)
	}
}
