// Package cssvars resolves CSS custom properties declared across the :root,
// .dark and @theme inline blocks of a design-token stylesheet into a single
// flattened :root sheet.
//
// Everything in this package is pure: the same input text and mode always
// produce the same output, and no value is mutated after it is returned.
package cssvars

import (
	"regexp"
	"strings"
)

// declRe matches a custom property declaration. A declaration without a
// trailing semicolon is not recognized.
var declRe = regexp.MustCompile(`--([a-zA-Z0-9-]+)\s*:\s*([^;]+);`)

// Vars is an insertion-ordered map of custom property names (without the
// leading "--") to raw values.
//
// Setting an existing name replaces its value but keeps its original
// position, so iteration always follows first-seen order.
type Vars struct {
	keys   []string
	values map[string]string
}

// NewVars returns an empty Vars.
func NewVars() *Vars {
	return &Vars{values: make(map[string]string)}
}

// ParseVars scans a block body for "--name: value;" declarations.
// Later declarations of the same name overwrite earlier ones.
func ParseVars(block string) *Vars {
	vars := NewVars()
	for _, m := range declRe.FindAllStringSubmatch(block, -1) {
		vars.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	return vars
}

// Set stores value under name.
func (v *Vars) Set(name, value string) {
	if _, ok := v.values[name]; !ok {
		v.keys = append(v.keys, name)
	}
	v.values[name] = value
}

// Get returns the value stored under name.
func (v *Vars) Get(name string) (string, bool) {
	if v == nil {
		return "", false
	}
	value, ok := v.values[name]
	return value, ok
}

// Len returns the number of distinct names.
func (v *Vars) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the names in insertion order.
func (v *Vars) Keys() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Each calls fn for every entry in insertion order.
func (v *Vars) Each(fn func(name, value string)) {
	if v == nil {
		return
	}
	for _, k := range v.keys {
		fn(k, v.values[k])
	}
}

// Clone returns an independent copy.
func (v *Vars) Clone() *Vars {
	out := NewVars()
	v.Each(out.Set)
	return out
}

// Overlay returns a copy of v with every entry of top applied on top.
// Names already in v keep their position; new names are appended in top's order.
func (v *Vars) Overlay(top *Vars) *Vars {
	out := v.Clone()
	top.Each(out.Set)
	return out
}

// Equal reports whether both maps hold the same entries in the same order.
func (v *Vars) Equal(other *Vars) bool {
	if v.Len() != other.Len() {
		return false
	}
	for i, k := range v.Keys() {
		if other.keys[i] != k || other.values[k] != v.values[k] {
			return false
		}
	}
	return true
}
