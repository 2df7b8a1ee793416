package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "Hello World", "Hello World"},
		{"tab kept", "a\tb", "a\tb"},
		{"control dropped", "a\x00b\x1bc", "abc"},
		{"newline dropped", "line\none", "lineone"},
		{"nbsp to space", "a\u00a0b", "a b"},
		{"invalid bytes dropped", "a\xffb\xfe", "ab"},
		{"replacement char kept", "a\ufffdb", "a\ufffdb"},
		{"unicode kept", "Björk 日本", "Björk 日本"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"no truncation needed", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello w…"},
		{"wide characters", "日本語テキスト", 7, "日本語…"},
		{"sanitized first", "a\x00bc", 3, "abc"},
		{"zero width", "hello", 0, ""},
		{"empty string", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"padding needed", "hello", 10, "hello     "},
		{"exact width", "hello", 5, "hello"},
		{"already wider", "hello world", 5, "hello world"},
		{"empty string", "", 3, "   "},
		{"wide characters", "日本", 6, "日本  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pad(tt.input, tt.width); got != tt.want {
				t.Errorf("Pad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestPad_Styled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("hi")
	got := Pad(styled, 6)
	if w := ansi.StringWidth(got); w != 6 {
		t.Errorf("width = %d, want 6", w)
	}
	if !strings.HasPrefix(got, styled) {
		t.Errorf("Pad changed the styled prefix: %q", got)
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		width int
	}{
		{"basic row", "left", "right", 20},
		{"exact fit", "left", "right", 10},
		{"left truncated", "a rather long title", "1:00", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Row(tt.left, tt.right, tt.width)
			if w := ansi.StringWidth(got); w != tt.width {
				t.Errorf("Row(%q, %q, %d) width = %d", tt.left, tt.right, tt.width, w)
			}
			if !strings.HasSuffix(got, tt.right) {
				t.Errorf("Row(%q, %q, %d) = %q, should end with %q", tt.left, tt.right, tt.width, got, tt.right)
			}
		})
	}
}

func TestRow_TooNarrow(t *testing.T) {
	got := Row("left", "12:34", 3)
	if w := ansi.StringWidth(got); w > 3 {
		t.Errorf("Row width = %d, want <= 3", w)
	}
}
