// Package ui holds the terminal palette, status icons and theme detection
// shared by every ap output mode.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	profile := termenv.TrueColor
	if !ShouldUseColor() {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)
}

func applyThemeMode() {
	if ShouldUseColor() {
		lipgloss.SetHasDarkBackground(HasDarkBackground())
	}
}

// ayu pairs the light and dark variants of an Ayu palette entry.
func ayu(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette. Pass is the green used for sent rows, Fail the red for failed
// ones; Accent marks phases and prompts.
var (
	ColorPass   = ayu("#86b300", "#c2d94c")
	ColorWarn   = ayu("#f2ae49", "#ffb454")
	ColorFail   = ayu("#f07171", "#f07178")
	ColorMuted  = ayu("#828c99", "#6c7680")
	ColorAccent = ayu("#399ee6", "#59c2ff")
)

// Status icons.
const (
	IconPass  = "✓"
	IconWarn  = "⚠"
	IconFail  = "✖"
	IconSkip  = "-"
	IconInfo  = "ℹ"
	IconArrow = "→"
)

const separatorWidth = 42

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func RenderPass(s string) string   { return fg(ColorPass).Render(s) }
func RenderWarn(s string) string   { return fg(ColorWarn).Render(s) }
func RenderFail(s string) string   { return fg(ColorFail).Render(s) }
func RenderMuted(s string) string  { return fg(ColorMuted).Render(s) }
func RenderAccent(s string) string { return fg(ColorAccent).Render(s) }
func RenderBold(s string) string   { return lipgloss.NewStyle().Bold(true).Render(s) }

// RenderCategory renders a phase or section name as a bold uppercase label.
func RenderCategory(s string) string {
	return fg(ColorAccent).Bold(true).Render(strings.ToUpper(s))
}

// RenderSeparator renders the muted rule that frames phase banners.
func RenderSeparator() string {
	return RenderMuted(strings.Repeat("─", separatorWidth))
}
