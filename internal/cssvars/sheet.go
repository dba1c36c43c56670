package cssvars

import "strings"

// WarnEmptyTheme is reported when the @theme inline block is missing or has
// no declarations. Resolution still emits the base variables.
const WarnEmptyTheme = "no variables found in @theme inline block"

// Sheet is the result of one resolution pass.
type Sheet struct {
	// Dark records the mode the sheet was resolved for.
	Dark bool
	// Base holds the :root variables, overlaid with .dark when Dark is set,
	// as declared (before var() substitution).
	Base *Vars
	// ResolvedBase is Base with one pass of var() substitution against itself.
	ResolvedBase *Vars
	// Theme is the @theme inline block resolved against Base.
	Theme *Vars
	// CSS is the flattened :root rule.
	CSS      string
	Warnings []string
}

// Resolve runs a full pass over css for the given mode.
func Resolve(css string, dark bool) Sheet {
	root := ParseVars(ExtractBlock(css, RootSelector))
	darkVars := ParseVars(ExtractBlock(css, DarkSelector))
	themeVars := ParseVars(ExtractBlock(css, ThemeSelector))

	var warnings []string
	if themeVars.Len() == 0 {
		warnings = append(warnings, WarnEmptyTheme)
	}

	base := root
	if dark {
		base = root.Overlay(darkVars)
	}

	resolvedBase := ResolveAll(base, base)
	resolvedTheme := ResolveAll(themeVars, base)

	return Sheet{
		Dark:         dark,
		Base:         base,
		ResolvedBase: resolvedBase,
		Theme:        resolvedTheme,
		CSS:          Render(resolvedBase, resolvedTheme),
		Warnings:     warnings,
	}
}

// Render writes a single :root rule declaring every base entry followed by
// every theme entry. A name present in both groups is declared twice; the
// theme declaration comes last and wins in the cascade.
func Render(base, theme *Vars) string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	write := func(name, value string) {
		sb.WriteString("  --")
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString(";\n")
	}
	base.Each(write)
	theme.Each(write)
	sb.WriteString("}")
	return sb.String()
}
