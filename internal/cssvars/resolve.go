package cssvars

import (
	"regexp"
	"strings"
)

var refRe = regexp.MustCompile(`var\(--([a-zA-Z0-9-]+)\)`)

// ResolveValue substitutes every var(--name) in value with name's entry in
// base. References to unknown or empty names are left as written.
//
// This is a single textual pass: a substituted value that itself contains
// var() is not expanded again, and calc() arithmetic is left alone.
func ResolveValue(value string, base *Vars) string {
	if !strings.Contains(value, "var(") {
		return value
	}
	return refRe.ReplaceAllStringFunc(value, func(ref string) string {
		name := refRe.FindStringSubmatch(ref)[1]
		if v, ok := base.Get(name); ok && v != "" {
			return v
		}
		return ref
	})
}

// ResolveAll resolves every entry of vars against base, keeping order.
func ResolveAll(vars, base *Vars) *Vars {
	out := NewVars()
	vars.Each(func(name, value string) {
		out.Set(name, ResolveValue(value, base))
	})
	return out
}
