package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrshiposha/drm/mode"
)

var (
	colorPrimary = lipgloss.Color("39")
	colorSubtle  = lipgloss.Color("241")
	colorText    = lipgloss.Color("252")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
		}).
		Headers(headers...)
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

func printTable(w io.Writer, t *table.Table) {
	fmt.Fprintln(w, t.String())
}

func printTotal(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf(format, args...)))
}

func joinHandles(hs []mode.Handle) string {
	s := make([]string, len(hs))
	for i, h := range hs {
		s[i] = h.String()
	}
	return strings.Join(s, " ")
}

// fourcc renders a pixel format code such as "XR24".
func fourcc(f uint32) string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

func connectionName(c uint8) string {
	switch c {
	case mode.Connected:
		return "connected"
	case mode.Disconnected:
		return "disconnected"
	}
	return "unknown"
}
