package wbe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/wbe-dev/wbe/css"
	"github.com/wbe-dev/wbe/fetch"
	"github.com/wbe-dev/wbe/html"
	"github.com/wbe-dev/wbe/layout"
	"github.com/wbe-dev/wbe/paint"
	"github.com/wbe-dev/wbe/style"
	"github.com/wbe-dev/wbe/url"
)

// Engine is the process-wide context in place of package-level
// globals: the response cache, the fetcher, the shell's font
// capability, and the default stylesheet are all threaded from here
// into every page load.
type Engine struct {
	Config Config
	Fonts  layout.FontMetrics
	Logger *slog.Logger

	fetcher           *fetch.Fetcher
	defaultStylesheet css.Stylesheet
}

// NewEngine builds an Engine. fonts is the shell-supplied FontMetrics
// capability; the engine never constructs fonts itself.
func NewEngine(cfg Config, fonts layout.FontMetrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache := fetch.NewCache(cfg.CacheCapacity)
	fetcher := fetch.NewFetcher(cache, cfg.UserAgent)

	e := &Engine{Config: cfg, Fonts: fonts, Logger: logger, fetcher: fetcher}
	e.defaultStylesheet = e.readDefaultStylesheet()
	return e
}

func (e *Engine) readDefaultStylesheet() css.Stylesheet {
	if e.Config.DefaultStylesheetPath == "" {
		return nil
	}
	data, err := os.ReadFile(e.Config.DefaultStylesheetPath)
	if err != nil {
		e.Logger.Warn("read default stylesheet", "path", e.Config.DefaultStylesheetPath, "error", err)
		return nil
	}
	return css.Parse(string(data))
}

// Page is one loaded document: its tree, the cascade it resolved
// against, the current layout/display list, and scroll position.
type Page struct {
	URL      *url.URL
	Root     *html.Node
	Sheet    css.Stylesheet
	Doc      *layout.DocumentLayout
	Commands []paint.Command
	Scroll   int
}

// Load fetches raw, parses it, resolves style against the default
// stylesheet plus any <link rel=stylesheet> sheets it references, and
// produces an initial layout and paint-command list.
func (e *Engine) Load(ctx context.Context, raw string) (*Page, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &EngineError{Kind: KindBadResponse, URL: raw, Err: err}
	}

	body, final, err := e.fetcher.Request(ctx, u, nil)
	if err != nil {
		return nil, &EngineError{Kind: classifyFetchErr(err), URL: u.String(), Err: err}
	}

	root := html.Parse(body)
	sheet := e.resolveStylesheets(ctx, root, final)
	style.Resolve(root, sheet)

	p := &Page{URL: final, Root: root, Sheet: sheet}
	e.Reflow(p, e.Config.Width)
	return p, nil
}

// Reflow re-runs layout and paint at the given viewport width (a
// Configure event) and re-clamps scroll.
func (e *Engine) Reflow(p *Page, width int) {
	doc := layout.NewDocument(p.Root, e.Fonts, width, e.Config.HStep, e.Config.VStep)
	doc.Layout()
	p.Doc = doc
	p.Commands = paint.Paint(doc, e.Fonts)
	p.Scroll = layout.ClampScroll(p.Scroll, doc.Height, e.Config.VStep, e.Config.Height)
}

// Scroll applies a Down event: scroll advances by delta (typically
// ±Config.ScrollStep), clamped to the document's extent.
func (e *Engine) Scroll(p *Page, delta int) {
	p.Scroll = layout.ClampScroll(p.Scroll+delta, p.Doc.Height, e.Config.VStep, e.Config.Height)
}

// Visible returns p.Commands culled to the current scroll viewport.
func (e *Engine) Visible(p *Page) []paint.Command {
	return paint.Cull(p.Commands, p.Scroll, e.Config.Height)
}

// resolveStylesheets builds the cascade: the engine's default
// stylesheet first, then every <link rel=stylesheet> sheet the
// document references, each resolved against pageURL and fetched
// best-effort — an auxiliary stylesheet failing to fetch is swallowed,
// not fatal to the page load.
func (e *Engine) resolveStylesheets(ctx context.Context, root *html.Node, pageURL *url.URL) css.Stylesheet {
	sheet := append(css.Stylesheet{}, e.defaultStylesheet...)

	for _, href := range stylesheetLinks(root) {
		linkURL, err := pageURL.Resolve(href)
		if err != nil {
			e.Logger.Warn("resolve stylesheet link", "href", href, "error", err)
			continue
		}

		body, _, err := e.fetcher.Request(ctx, linkURL, nil)
		if err != nil {
			e.Logger.Warn("fetch stylesheet", "url", linkURL.String(), "error", err)
			continue
		}

		sheet = append(sheet, css.Parse(body)...)
	}

	return sheet
}

// stylesheetLinks walks the tree for <link rel=stylesheet href=...>
// elements, in document order.
func stylesheetLinks(n *html.Node) []string {
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.IsElement("link") {
			if rel, ok := n.Attr("rel"); ok && strings.EqualFold(rel, "stylesheet") {
				if href, ok := n.Attr("href"); ok {
					hrefs = append(hrefs, href)
				}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return hrefs
}

// classifyFetchErr maps a fetch.Error's Kind onto an ErrorKind.
func classifyFetchErr(err error) ErrorKind {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case fetch.KindRedirectLoop:
			return KindRedirectLoop
		case fetch.KindUnsupportedEncoding:
			return KindUnsupportedEncoding
		case fetch.KindBadStatus:
			return KindBadResponse
		case fetch.KindTLS:
			return KindTLS
		default:
			return KindIO
		}
	}
	return KindIO
}
