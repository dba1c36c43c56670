// Package swatch prints resolved theme variables to a terminal, drawing a
// color block next to every hex color value.
package swatch

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rhomel/hbtheme/internal/cssvars"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether value is a #rgb or #rrggbb color.
func IsHexColor(value string) bool {
	return hexColorRe.MatchString(value)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer renders sheets.
type Printer struct {
	w      io.Writer
	styled bool
	r      *lipgloss.Renderer
}

// NewPrinter returns a Printer for w. Styling is enabled only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, IsTerminal(w))
}

func newPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled, r: lipgloss.NewRenderer(w)}
}

// Print writes one line per resolved base and theme variable.
func (p *Printer) Print(sheet cssvars.Sheet) error {
	mode := "light"
	if sheet.Dark {
		mode = "dark"
	}

	header := p.r.NewStyle().Bold(true)
	name := p.r.NewStyle().Width(28)
	block := p.r.NewStyle().Width(4)

	title := fmt.Sprintf("theme (%s)", mode)
	if p.styled {
		title = header.Render(title)
	}
	if _, err := fmt.Fprintln(p.w, title); err != nil {
		return err
	}

	var err error
	line := func(n, value string) {
		if err != nil {
			return
		}
		if !p.styled {
			_, err = fmt.Fprintf(p.w, "--%s: %s\n", n, value)
			return
		}
		chip := "    "
		if IsHexColor(value) {
			chip = block.Background(lipgloss.Color(value)).Render("")
		}
		_, err = fmt.Fprintf(p.w, "%s %s %s\n", chip, name.Render("--"+n), value)
	}
	sheet.ResolvedBase.Each(line)
	sheet.Theme.Each(line)
	return err
}
