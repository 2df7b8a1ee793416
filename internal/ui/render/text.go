// Package render provides width-aware text helpers for the terminal views.
package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// Sanitize drops control characters other than tab and invalid UTF-8 bytes,
// and turns non-breaking spaces into plain spaces. Tag values come from
// arbitrary files and can carry either.
func Sanitize(s string) string {
	clean := true
	for _, r := range s {
		if r == utf8.RuneError || r == '\u00a0' || (r != '\t' && unicode.IsControl(r)) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r == utf8.RuneError:
			// Keep a literal U+FFFD, drop undecodable bytes.
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 3 {
				b.WriteRune(r)
			}
		case r == '\u00a0':
			b.WriteByte(' ')
		case r != '\t' && unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Truncate sanitizes plain text and shortens it to maxWidth cells.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(Sanitize(s), maxWidth, Ellipsis)
}

// Pad fills s with spaces up to width cells. Styled text is measured without
// its escape sequences.
func Pad(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Row lays out left and right on one line of width cells, separated by at
// least one space. Left is cut when both do not fit.
func Row(left, right string, width int) string {
	rightWidth := ansi.StringWidth(right)
	room := width - rightWidth - 1
	if room < 1 {
		return ansi.Truncate(right, width, "")
	}
	if ansi.StringWidth(left) > room {
		left = ansi.Truncate(left, room, Ellipsis)
	}
	gap := max(width-ansi.StringWidth(left)-rightWidth, 1)
	return left + strings.Repeat(" ", gap) + right
}
