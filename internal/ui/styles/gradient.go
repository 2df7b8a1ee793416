package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Gradient renders text with a horizontal color gradient from one color to
// another, one step per grapheme cluster.
func Gradient(text string, from, to lipgloss.Color) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	switch len(clusters) {
	case 0:
		return ""
	case 1:
		return lipgloss.NewStyle().Foreground(from).Render(text)
	}

	colors := Blend(len(clusters), from, to)
	var b strings.Builder
	for i, cluster := range clusters {
		b.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Render(cluster))
	}
	return b.String()
}

// GradientSpan colors the first n cells of a run of width cells as if the
// gradient covered the whole run, so a partially filled bar keeps stable
// colors as it grows.
func GradientSpan(cell string, n, width int, from, to lipgloss.Color) string {
	if n <= 0 || width <= 0 {
		return ""
	}
	n = min(n, width)
	colors := Blend(width, from, to)
	var b strings.Builder
	for i := range n {
		b.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Render(cell))
	}
	return b.String()
}

// Blend returns size colors blended between from and to in HCL space.
func Blend(size int, from, to lipgloss.Color) []lipgloss.Color {
	if size < 1 {
		return nil
	}
	if size == 1 {
		return []lipgloss.Color{from}
	}

	c1, _ := colorful.MakeColor(toColor(from))
	c2, _ := colorful.MakeColor(toColor(to))

	colors := make([]lipgloss.Color, size)
	for i := range size {
		t := float64(i) / float64(size-1)
		colors[i] = lipgloss.Color(c1.BlendHcl(c2, t).Clamped().Hex())
	}
	return colors
}

// toColor converts a hex lipgloss.Color. ANSI palette colors map to gray.
func toColor(c lipgloss.Color) color.Color {
	hex := string(c)
	if len(hex) == 7 && hex[0] == '#' {
		if col, err := colorful.Hex(hex); err == nil {
			return col
		}
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}
