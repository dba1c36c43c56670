// Package document models the parts of a page the theme loader touches: the
// root element's class list and the head's style and link elements.
package document

import (
	"html"
	"strings"
	"sync"
)

// Document is a root class list plus a head. It is safe for concurrent use.
type Document struct {
	Root *ClassList
	Head *Head
}

// New returns an empty document.
func New() *Document {
	return &Document{Root: NewClassList(), Head: NewHead()}
}

// IsDark reports whether the root carries the dark class.
func (d *Document) IsDark() bool {
	return d.Root.Has("dark")
}

// ClassList is the class attribute of the root element.
type ClassList struct {
	mu      sync.Mutex
	classes []string

	// dispatch serializes observer callbacks so passes never overlap.
	dispatch  sync.Mutex
	obsMu     sync.Mutex
	observers map[int]func()
	order     []int
	nextID    int
}

// NewClassList returns an empty class list.
func NewClassList() *ClassList {
	return &ClassList{observers: make(map[int]func())}
}

// Observe registers fn to run after every change of the class attribute.
// Observers run synchronously, in registration order, on the goroutine that
// made the change, and must not change the class list themselves. The
// returned func cancels the registration.
func (c *ClassList) Observe(fn func()) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.order = append(c.order, id)
	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.observers, id)
		for i, o := range c.order {
			if o == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Has reports whether name is present.
func (c *ClassList) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return indexOf(c.classes, name) >= 0
}

// Add adds name if absent.
func (c *ClassList) Add(name string) {
	c.mutate(func(classes []string) []string {
		if indexOf(classes, name) >= 0 {
			return classes
		}
		return append(classes, name)
	})
}

// Remove drops name if present.
func (c *ClassList) Remove(name string) {
	c.mutate(func(classes []string) []string {
		if i := indexOf(classes, name); i >= 0 {
			return append(classes[:i:i], classes[i+1:]...)
		}
		return classes
	})
}

// Toggle flips name and reports whether it is now present.
func (c *ClassList) Toggle(name string) bool {
	var present bool
	c.mutate(func(classes []string) []string {
		if i := indexOf(classes, name); i >= 0 {
			present = false
			return append(classes[:i:i], classes[i+1:]...)
		}
		present = true
		return append(classes, name)
	})
	return present
}

// Set replaces the attribute with a space-separated class string.
func (c *ClassList) Set(attr string) {
	c.mutate(func([]string) []string {
		var out []string
		for _, f := range strings.Fields(attr) {
			if indexOf(out, f) < 0 {
				out = append(out, f)
			}
		}
		return out
	})
}

// String returns the attribute value.
func (c *ClassList) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.classes, " ")
}

func (c *ClassList) mutate(fn func([]string) []string) {
	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	c.mu.Lock()
	before := strings.Join(c.classes, " ")
	c.classes = fn(c.classes)
	changed := strings.Join(c.classes, " ") != before
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

func (c *ClassList) notify() {
	c.obsMu.Lock()
	fns := make([]func(), 0, len(c.order))
	for _, id := range c.order {
		fns = append(fns, c.observers[id])
	}
	c.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Head holds style elements keyed by id and stylesheet links keyed by href.
type Head struct {
	mu     sync.RWMutex
	styles map[string]string
	ids    []string
	links  []string
}

// NewHead returns an empty head.
func NewHead() *Head {
	return &Head{styles: make(map[string]string)}
}

// SetStyle creates the style element id or replaces its content.
func (h *Head) SetStyle(id, css string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.styles[id]; !ok {
		h.ids = append(h.ids, id)
	}
	h.styles[id] = css
}

// Style returns the content of style element id.
func (h *Head) Style(id string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	css, ok := h.styles[id]
	return css, ok
}

// StyleCount returns the number of style elements.
func (h *Head) StyleCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ids)
}

// AddLink appends a stylesheet link unless one with the same href exists.
func (h *Head) AddLink(href string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if indexOf(h.links, href) >= 0 {
		return false
	}
	h.links = append(h.links, href)
	return true
}

// Links returns the link hrefs in insertion order.
func (h *Head) Links() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.links))
	copy(out, h.links)
	return out
}

// Render returns the head markup: style elements in creation order, then links.
func (h *Head) Render() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var sb strings.Builder
	for _, id := range h.ids {
		sb.WriteString(`<style id="`)
		sb.WriteString(html.EscapeString(id))
		sb.WriteString(`">`)
		// keep a stray "</style>" in a value from closing the element
		sb.WriteString(strings.ReplaceAll(h.styles[id], "</", `<\/`))
		sb.WriteString("</style>\n")
	}
	for _, href := range h.links {
		sb.WriteString(`<link rel="stylesheet" href="`)
		sb.WriteString(html.EscapeString(href))
		sb.WriteString("\">\n")
	}
	return sb.String()
}
