// Package site renders Markdown pages wrapped in the themed document, serves
// them with live reload, and exports them as static HTML.
package site

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/russross/blackfriday/v2"
	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/document"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
)

// IndexName is the Markdown file rendered as the site root.
const IndexName = "index.md"

const noTitle = "(no title)"

// baseStyle applies the resolved theme variables to the page itself.
const baseStyle = `
	body { font-family: var(--font-sans, sans-serif); color: var(--foreground); background-color: var(--background); }
	.container { max-width: 42rem; margin: auto; }
	.container p { line-height: 1.6 }
	code, pre { font-family: var(--font-mono, monospace); }
	a { color: var(--primary, inherit); }
	#theme-toggle-btn { float: right; border-radius: var(--radius, 0); }
`

// liveScript reloads on server events and wires the toggle button.
const liveScript = `<script>
var es = new EventSource('/_sse');
es.onmessage = function(e) { if (e.data === 'reload') window.location.reload(); };
document.addEventListener('DOMContentLoaded', function() {
  var btn = document.getElementById('theme-toggle-btn');
  if (!btn) return;
  btn.addEventListener('click', function() { fetch('/_theme/toggle', { method: 'POST' }); });
});
</script>`

// Page is one Markdown file in the content directory.
type Page struct {
	MDName   string
	Title    string
	HTMLPath string
}

// Generator renders pages from a content directory into the themed document.
type Generator struct {
	contentDir string
	doc        *document.Document
	logger     *zap.Logger
	// Live adds the reload script and toggle button.
	Live bool
}

// NewGenerator returns a Generator reading Markdown from contentDir.
func NewGenerator(contentDir string, doc *document.Document, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{contentDir: contentDir, doc: doc, logger: logger}
}

// Pages lists the non-index Markdown files sorted by name, with warnings for
// entries that could not be read.
func (g *Generator) Pages() ([]Page, []string) {
	var pages []Page
	var warns []string
	entries, err := os.ReadDir(g.contentDir)
	if err != nil {
		warns = append(warns, fmt.Sprintf("cannot read directory %s: %v", g.contentDir, err))
		return pages, warns
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == IndexName || !strings.HasSuffix(name, ".md") {
			continue
		}
		md, err := os.ReadFile(filepath.Join(g.contentDir, name))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		pages = append(pages, Page{
			MDName:   name,
			Title:    extractTitle(md),
			HTMLPath: strings.TrimSuffix(name, ".md") + ".html",
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].MDName < pages[j].MDName })
	return pages, warns
}

// RenderIndex renders index.md (when present) followed by the page list.
func (g *Generator) RenderIndex() ([]byte, error) {
	pages, warns := g.Pages()
	for _, w := range warns {
		g.logger.Warn("content", zap.String("warning", w))
	}

	title := "Theme preview"
	var body []byte
	md, err := os.ReadFile(filepath.Join(g.contentDir, IndexName))
	switch {
	case err == nil:
		title = extractTitle(md)
		body = blackfriday.Run(md)
	case !os.IsNotExist(err):
		return nil, apperrors.New(apperrors.CodeRenderFailed, "read "+IndexName, err)
	}

	body = append(body, buildListHTML(pages)...)
	return g.wrap(title, body), nil
}

// RenderPage renders the page whose HTML path is htmlPath.
func (g *Generator) RenderPage(htmlPath string) ([]byte, error) {
	name := filepath.Base(htmlPath)
	if name != htmlPath || !strings.HasSuffix(name, ".html") {
		return nil, apperrors.New(apperrors.CodeRenderFailed, fmt.Sprintf("invalid page %q", htmlPath), os.ErrNotExist)
	}
	md, err := os.ReadFile(filepath.Join(g.contentDir, strings.TrimSuffix(name, ".html")+".md"))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeRenderFailed, "read page "+name, err)
	}
	return g.wrap(extractTitle(md), blackfriday.Run(md)), nil
}

// WriteAll writes index.html and every page into outDir and returns the
// number of files written.
func (g *Generator) WriteAll(outDir string) (int, error) {
	//nolint:gosec // G301: generated site is world-readable
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, apperrors.New(apperrors.CodeRenderFailed, "create output directory", err)
	}

	count := 0
	pages, _ := g.Pages()
	for _, p := range pages {
		out, err := g.RenderPage(p.HTMLPath)
		if err != nil {
			g.logger.Warn("page skipped", zap.String("page", p.MDName), zap.Error(err))
			continue
		}
		//nolint:gosec // G306: generated site is world-readable
		if err := os.WriteFile(filepath.Join(outDir, p.HTMLPath), out, 0644); err == nil {
			count++
		}
	}

	index, err := g.RenderIndex()
	if err != nil {
		return count, err
	}
	//nolint:gosec // G306: generated site is world-readable
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), index, 0644); err != nil {
		return count, apperrors.New(apperrors.CodeRenderFailed, "write index.html", err)
	}

	// +1 for index
	return count + 1, nil
}

func (g *Generator) wrap(title string, body []byte) []byte {
	script, toggle := "", ""
	if g.Live {
		script = liveScript
		toggle = `<button id="theme-toggle-btn" type="button">toggle theme</button>`
	}
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html class="%s">
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <style>
%s
  </style>
%s%s
</head>
<body>
  %s
  <div class="container">
%s
  </div>
</body>
</html>`,
		html.EscapeString(g.doc.Root.String()), html.EscapeString(title), baseStyle,
		g.doc.Head.Render(), script, toggle, body,
	))
}

func buildListHTML(pages []Page) []byte {
	var buf bytes.Buffer
	if len(pages) > 0 {
		buf.WriteString("<h2>Pages</h2>\n<ul>\n")
		for _, p := range pages {
			buf.WriteString(fmt.Sprintf(
				"  <li><a href=\"%s\">%s</a></li>\n",
				html.EscapeString(p.HTMLPath), html.EscapeString(p.Title),
			))
		}
		buf.WriteString("</ul>\n")
	}
	return buf.Bytes()
}

func extractTitle(md []byte) string {
	for _, line := range bytes.Split(md, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("# ")) {
			return strings.TrimSpace(string(bytes.TrimPrefix(line, []byte("# "))))
		}
	}
	return noTitle
}
