package swatch

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rhomel/hbtheme/internal/cssvars"
)

func TestIsHexColor(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"#fff":            true,
		"#0A0A0A":         true,
		"#12345":          false,
		"oklch(0.2 0 0)":  false,
		"var(--primary)":  false,
		"#ffffff; color:": false,
	}
	for in, want := range tests {
		if got := IsHexColor(in); got != want {
			t.Fatalf("IsHexColor(%q) = %t, want %t", in, got, want)
		}
	}
}

func TestPrintPlainWhenNotTerminal(t *testing.T) {
	t.Parallel()

	sheet := cssvars.Resolve(":root { --bg: #fff; }\n.dark { --bg: #000; }\n@theme inline { --color-bg: var(--bg); }", true)

	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Fatalf("buffer reported as terminal")
	}
	if err := NewPrinter(&buf).Print(sheet); err != nil {
		t.Fatalf("Print() unexpected error: %v", err)
	}
	want := "theme (dark)\n--bg: #000\n--color-bg: #000\n"
	if got := buf.String(); got != want {
		t.Fatalf("Print() =\n%q\nwant\n%q", got, want)
	}
}

func TestPrintStyledListsEveryVariable(t *testing.T) {
	t.Parallel()

	sheet := cssvars.Resolve(":root { --bg: #fff; --radius: 4px; }\n@theme inline { --r: var(--radius); }", false)

	var buf bytes.Buffer
	if err := newPrinter(&buf, true).Print(sheet); err != nil {
		t.Fatalf("Print() unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"theme (light)", "--bg", "--radius", "--r", "4px"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 4 {
		t.Fatalf("line count = %d, want 4:\n%s", lines, out)
	}
}
