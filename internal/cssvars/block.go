package cssvars

import (
	"regexp"
	"sync"
)

// Block selectors understood by Resolve.
const (
	RootSelector  = ":root"
	DarkSelector  = ".dark"
	ThemeSelector = "@theme inline"
)

var blockPatterns sync.Map // selector -> *regexp.Regexp

// ExtractBlock returns the text between the first "selector {" in css and the
// next closing brace, or "" when the selector does not occur. The selector is
// matched literally and case-insensitively.
//
// Nested braces are not supported: the first "}" ends the block, so an
// @media rule inside a block truncates it.
func ExtractBlock(css, selector string) string {
	m := blockPattern(selector).FindStringSubmatch(css)
	if m == nil {
		return ""
	}
	return m[1]
}

func blockPattern(selector string) *regexp.Regexp {
	if cached, ok := blockPatterns.Load(selector); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(selector) + `\s*\{([\s\S]*?)\}`)
	blockPatterns.Store(selector, re)
	return re
}
