// Package ui renders CLI output: status glyphs, key-value blocks, and
// tables. Colors degrade to plain ASCII when interaction is disabled.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette tuned for dark terminals.
var (
	accent = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	amber  = lipgloss.Color("214")
	gray   = lipgloss.Color("243")
	border = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(accent)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	mutedStyle   = lipgloss.NewStyle().Foreground(gray)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// Bold emphasizes inline text, typically a name the user typed.
func Bold(s string) string { return boldStyle.Render(s) }

// Muted de-emphasizes inline text such as timestamps and error markers.
func Muted(s string) string { return mutedStyle.Render(s) }

// Bool renders a boolean as colored true/false.
func Bool(v bool) string {
	if v {
		return successStyle.Render("true")
	}
	return errorStyle.Render("false")
}

// StatusDot is the liveness glyph used in container listings: green
// for running, red for everything else.
func StatusDot(running bool) string {
	if running {
		return successStyle.Render("●")
	}
	return errorStyle.Render("●")
}

// Percent formats a CPU percentage and colors heavy loads.
func Percent(v float64) string {
	s := fmt.Sprintf("%.1f%%", v)
	switch {
	case v >= 90:
		return errorStyle.Render(s)
	case v >= 70:
		return warnStyle.Render(s)
	default:
		return s
	}
}

// Single-line message helpers, no trailing newline.

func SuccessMsg(format string, a ...any) string {
	return successStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func WarnMsg(format string, a ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func ErrorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func InfoMsg(format string, a ...any) string {
	return accentStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

// Pair is one row of a KeyValues block. Construct with KV.
type Pair struct {
	key   string
	value string
}

// KV creates a key-value pair.
func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders pairs as aligned "key: value" lines, one per pair,
// each prefixed with indent. The result ends with a newline.
func KeyValues(indent string, pairs ...Pair) string {
	width := 0
	for _, p := range pairs {
		if len(p.key) > width {
			width = len(p.key)
		}
	}

	var b strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", width+1, p.key+":")
		b.WriteString(indent + mutedStyle.Render(label) + " " + p.value + "\n")
	}
	return b.String()
}

// Table renders rows under a header with rounded borders and zebra
// striping.
func Table(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	head := cell.Foreground(accent).Bold(true)
	odd := cell.Foreground(gray)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return head
			case row%2 == 0:
				return cell
			default:
				return odd
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}
