// Package fonts requests web fonts named by a theme's font-role variables.
package fonts

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/cssvars"
)

// Roles are the base variable names consulted for font stacks, in request order.
var Roles = [...]string{"font-sans", "font-serif", "font-mono"}

// DefaultWeights is requested for every family.
var DefaultWeights = []string{"400", "500", "600", "700"}

const apiBase = "https://fonts.googleapis.com/css2"

var generics = map[string]struct{}{
	"ui-sans-serif": {},
	"ui-serif":      {},
	"ui-monospace":  {},
	"system-ui":     {},
	"sans-serif":    {},
	"serif":         {},
	"monospace":     {},
	"cursive":       {},
	"fantasy":       {},
}

// ExtractFamily returns the first family of a comma-separated font stack
// with quotes removed. Generic families and empty stacks report false.
func ExtractFamily(stack string) (string, bool) {
	if stack == "" {
		return "", false
	}
	first, _, _ := strings.Cut(stack, ",")
	first = strings.NewReplacer(`'`, "", `"`, "").Replace(strings.TrimSpace(first))
	if _, ok := generics[strings.ToLower(first)]; ok {
		return "", false
	}
	return first, true
}

// URL builds the stylesheet URL for family at the given weights.
// A nil weights slice uses DefaultWeights.
func URL(family string, weights []string) string {
	if weights == nil {
		weights = DefaultWeights
	}
	return apiBase + "?family=" + encodeComponent(family) + ":wght@" + strings.Join(weights, ";") + "&display=swap"
}

// encodeComponent escapes s for use inside a query value, with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Linker attaches a stylesheet link to a document. It reports whether the
// link was new.
type Linker interface {
	AddLink(href string) bool
}

// Loader requests each distinct font URL at most once over its lifetime.
type Loader struct {
	linker  Linker
	weights []string
	logger  *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewLoader returns a Loader that links fonts through linker. A nil logger
// discards output and nil weights use DefaultWeights.
func NewLoader(linker Linker, weights []string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	return &Loader{
		linker:  linker,
		weights: weights,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Load requests the families named by the font roles in base and returns the
// URLs that were requested for the first time.
func (l *Loader) Load(base *cssvars.Vars) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []string
	for _, role := range Roles {
		stack, _ := base.Get(role)
		family, ok := ExtractFamily(stack)
		if !ok {
			continue
		}
		href := URL(family, l.weights)
		if _, dup := l.seen[href]; dup {
			continue
		}
		l.seen[href] = struct{}{}
		if l.linker != nil && !l.linker.AddLink(href) {
			continue
		}
		l.logger.Debug("font requested", zap.String("role", role), zap.String("family", family))
		added = append(added, href)
	}
	return added
}
