package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"plain":             "plain",
		"&c[Admin]":         "[Admin]",
		"§a[Mod]&r ":        "[Mod] ",
		"&l&cBold &rnormal": "Bold normal",
		"&zunknown":         "unknown",
		"trailing&":         "trailing",
	}
	for in, want := range tests {
		assert.Equal(t, want, Strip(in), "input %q", in)
	}
}
