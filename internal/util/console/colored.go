// Package console renders legacy colour-coded text for terminals.
package console

import (
	"strings"

	"github.com/gookit/color"
	"go.minekube.com/common/minecraft/component/codec/legacy"
)

// Ansi converts text using '§' or '&' colour codes, like group prefixes,
// into ANSI escaped text. Formatting accumulates until a colour code or
// the reset code 'r'. Unknown codes reset as well.
func Ansi(s string) string {
	b := new(strings.Builder)
	var code bool
	style := plain
	for _, r := range s {
		if (r == legacy.DefaultChar || r == legacy.AmpersandChar) && !code {
			code = true
			continue
		}
		if code {
			code = false
			c, known := convert(r)
			switch {
			case !known || r == 'r' || r == 'R':
				style = plain
			case isColor(r):
				style = func(s string) string { return c.Sprint(s) }
			default:
				wrap := style
				style = func(s string) string { return wrap(c.Sprint(s)) }
			}
			continue
		}
		b.WriteString(style(string(r)))
	}
	return b.String()
}

// Strip removes '§' and '&' colour codes from text.
func Strip(s string) string {
	return color.ClearCode(Ansi(s))
}

func plain(s string) string { return s }

func isColor(r rune) bool {
	r = toLower(r)
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func convert(r rune) (color.Color, bool) {
	switch toLower(r) {
	case 'a':
		return color.LightGreen, true
	case 'b':
		return color.LightBlue, true
	case 'c':
		return color.LightRed, true
	case 'd':
		return color.LightMagenta, true
	case 'e':
		return color.LightYellow, true
	case 'f':
		return color.LightWhite, true
	case 'k':
		return color.OpConcealed, true
	case 'l':
		return color.OpBold, true
	case 'm':
		return color.OpStrikethrough, true
	case 'n':
		return color.OpUnderscore, true
	case 'o':
		return color.OpItalic, true
	case 'r':
		return color.OpReset, true
	case '0':
		return color.Black, true
	case '1':
		return color.Blue, true
	case '2':
		return color.Green, true
	case '3':
		return color.Cyan, true
	case '4':
		return color.Red, true
	case '5':
		return color.Magenta, true
	case '6':
		return color.Yellow, true
	case '7':
		return color.White, true
	case '8':
		return color.Gray, true
	case '9':
		return color.LightCyan, true
	default:
		return color.OpReset, false
	}
}
