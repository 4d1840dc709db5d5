package layout

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/wbe-dev/wbe/html"
)

// blockElements drives layout mode selection: a node lays out in
// block mode if any of its Element children has a tag in this set.
var blockElements = map[string]bool{
	"html": true, "body": true, "article": true, "section": true,
	"nav": true, "aside": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "hgroup": true, "header": true,
	"footer": true, "address": true, "p": true, "hr": true, "pre": true,
	"blockquote": true, "ol": true, "ul": true, "menu": true, "li": true,
	"dl": true, "dt": true, "dd": true, "figure": true, "figcaption": true,
	"main": true, "div": true, "table": true, "form": true,
	"fieldset": true, "legend": true, "details": true, "summary": true,
}

// emojiRune/emojiImageID implement the one hard-coded emoji resource:
// a word that is exactly U+1F600 paints as an image instead of text.
const emojiRune = '\U0001F600'
const emojiImageID = "1F600"

// DisplayItem is one entry of an inline BlockLayout's display list: a
// positioned glyph run ready for painting. ImageID is non-empty only
// for the hard-coded emoji resource, in which case Text/Color are unset
// and Font is the surrounding text's font, whose linespace sizes the
// image.
type DisplayItem struct {
	X, Y    int
	Text    string
	Font    FontID
	Color   string
	ImageID string
}

// BlockLayout is the one non-root box type. It lays out in either
// block mode (a stack of child BlockLayouts) or inline mode (a wrapped
// line of text), never both.
type BlockLayout struct {
	Node  *html.Node
	Fonts FontMetrics

	X, Y, Width, Height int

	Children    []*BlockLayout
	DisplayList []DisplayItem

	line           []lineItem
	cursorX        int
	cursorY        int
}

type lineItem struct {
	x       int
	text    string
	font    FontID
	color   string
	sup     bool
	imageID string
}

// layoutMode decides whether b lays out in block or inline mode: a
// text node is always inline, a childless element is block, and an
// element with any block-level child is block; otherwise inline.
func (b *BlockLayout) layoutMode() string {
	if b.Node.Kind == html.TextKind {
		return "inline"
	}
	if len(b.Node.Children) == 0 {
		return "block"
	}
	for _, c := range b.Node.Children {
		if c.Kind == html.ElementKind && blockElements[c.Tag] {
			return "block"
		}
	}
	return "inline"
}

// Layout lays b out according to layoutMode. X, Y, and Width must
// already be set by the caller before Layout is invoked.
func (b *BlockLayout) Layout() {
	switch b.layoutMode() {
	case "block":
		b.layoutBlockChildren()
	default:
		b.layoutInline()
	}
}

func (b *BlockLayout) layoutBlockChildren() {
	var prev *BlockLayout
	for _, c := range b.Node.Children {
		child := &BlockLayout{Node: c, Fonts: b.Fonts}
		child.X = b.X
		child.Width = b.Width
		if prev != nil {
			child.Y = prev.Y + prev.Height
		} else {
			child.Y = b.Y
		}
		child.Layout()
		b.Children = append(b.Children, child)
		prev = child
	}

	height := 0
	for _, c := range b.Children {
		height += c.Height
	}
	b.Height = height
}

func (b *BlockLayout) layoutInline() {
	b.cursorX, b.cursorY = 0, 0
	b.line = nil
	b.recurse(b.Node, false, false)
	b.flushLine(false)
	b.Height = b.cursorY
}

// recurse walks n's subtree in document order: Text nodes are split
// into words, Elements are descended into, <br> forces a flush,
// <sup>/<abbr> toggle the rendering mode for their subtree, and a
// closing </h1> triggers a centered flush.
func (b *BlockLayout) recurse(n *html.Node, sup, abbr bool) {
	if n.Kind == html.TextKind {
		for _, w := range strings.Fields(n.Text) {
			b.word(n, w, sup, abbr)
		}
		return
	}

	switch n.Tag {
	case "br":
		b.flushLine(false)
	case "sup":
		for _, c := range n.Children {
			b.recurse(c, true, abbr)
		}
	case "abbr":
		for _, c := range n.Children {
			b.recurse(c, sup, true)
		}
	case "h1":
		for _, c := range n.Children {
			b.recurse(c, sup, abbr)
		}
		b.flushLine(true)
	default:
		for _, c := range n.Children {
			b.recurse(c, sup, abbr)
		}
	}
}

// word lays out one word w from node: derives a font from node.Style,
// measures w, wraps to a new line if it would overflow (splitting at a
// soft hyphen first if one is present), then appends it to the
// current line.
func (b *BlockLayout) word(node *html.Node, w string, sup, abbr bool) {
	size, weight, style := deriveFont(node, sup)
	font := b.Fonts.GetFont(size, weight, style)

	if abbr {
		b.wordAbbr(node, w, size, weight, style, sup)
		return
	}

	clean := strings.ReplaceAll(w, softHyphen, "")

	if clean == string(emojiRune) {
		b.appendImage(node, font, sup)
		return
	}

	width := b.Fonts.Measure(font, clean)

	if b.cursorX+width > b.Width {
		if strings.Contains(w, softHyphen) {
			avail := b.Width - b.cursorX
			if prefix, suffix, ok := splitSoftHyphen(w, avail, func(s string) int { return b.Fonts.Measure(font, s) }); ok {
				b.appendItem(node, prefix, font, sup)
				b.flushLine(false)
				b.word(node, suffix, sup, abbr)
				return
			}
		}
		b.flushLine(false)
	}

	b.appendItem(node, clean, font, sup)
}

// appendItem records text on the current line and advances cursorX by
// its measured width plus a space.
func (b *BlockLayout) appendItem(node *html.Node, text string, font FontID, sup bool) {
	width := b.Fonts.Measure(font, text)
	b.line = append(b.line, lineItem{x: b.cursorX, text: text, font: font, color: node.Style["color"], sup: sup})
	b.cursorX += width + b.Fonts.Measure(font, " ")
}

// appendImage records the hard-coded emoji resource as an image-kind
// line entry, sized by the current font's linespace.
func (b *BlockLayout) appendImage(node *html.Node, font FontID, sup bool) {
	size := b.Fonts.Linespace(font)
	b.line = append(b.line, lineItem{x: b.cursorX, font: font, sup: sup, imageID: emojiImageID})
	b.cursorX += size + b.Fonts.Measure(font, " ")
}

// wordAbbr lays out an abbreviation word: w splits into alternating
// lower/upper runs; lower runs render uppercased in a smaller bold
// font, upper runs render unchanged, and the whole word advances as
// the sum of its parts plus one trailing space.
func (b *BlockLayout) wordAbbr(node *html.Node, w string, size int, weight Weight, style FontStyle, sup bool) {
	normalFont := b.Fonts.GetFont(size, weight, style)
	smallFont := b.Fonts.GetFont(smallAbbrSize(size), Bold, style)

	runs := splitCaseRuns(w)
	type rendered struct {
		text  string
		font  FontID
		width int
	}
	items := make([]rendered, 0, len(runs))
	total := 0
	for _, r := range runs {
		font := normalFont
		text := r.text
		if !r.upper {
			font = smallFont
			text = strings.ToUpper(text)
		}
		width := b.Fonts.Measure(font, text)
		items = append(items, rendered{text: text, font: font, width: width})
		total += width
	}

	if b.cursorX+total > b.Width {
		b.flushLine(false)
	}

	for _, it := range items {
		b.line = append(b.line, lineItem{x: b.cursorX, text: it.text, font: it.font, color: node.Style["color"], sup: sup})
		b.cursorX += it.width
	}
	b.cursorX += b.Fonts.Measure(normalFont, " ")
}

func smallAbbrSize(size int) int {
	small := size * 3 / 4
	if small < 1 {
		small = 1
	}
	return small
}

// splitCaseRuns splits w into maximal runs of consecutive upper-case
// (or non-upper-case) runes.
func splitCaseRuns(w string) []caseRun {
	var runs []caseRun
	var cur strings.Builder
	curUpper := false
	started := false

	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, caseRun{text: cur.String(), upper: curUpper})
			cur.Reset()
		}
	}

	for _, r := range w {
		up := unicode.IsUpper(r)
		if !started {
			curUpper = up
			started = true
		} else if up != curUpper {
			flush()
			curUpper = up
		}
		cur.WriteRune(r)
	}
	flush()

	return runs
}

type caseRun struct {
	text  string
	upper bool
}

// flushLine commits the accumulated line to the display list at the
// computed baseline, then resets for the next line. When center is
// true (triggered by a closing </h1>), the line's entries are shifted
// so its extents are centered within [b.X, b.X+b.Width] first.
func (b *BlockLayout) flushLine(center bool) {
	if len(b.line) == 0 {
		return
	}

	maxAscent, maxDescent := 0, 0
	for _, it := range b.line {
		if a := b.Fonts.Ascent(it.font); a > maxAscent {
			maxAscent = a
		}
		if d := b.Fonts.Descent(it.font); d > maxDescent {
			maxDescent = d
		}
	}
	baseline := float64(b.cursorY) + 1.25*float64(maxAscent)

	if center {
		first := b.line[0]
		last := b.line[len(b.line)-1]
		lastWidth := b.Fonts.Measure(last.font, last.text)
		lineWidth := (last.x + lastWidth) - first.x
		shift := (b.Width-lineWidth)/2 - first.x
		for i := range b.line {
			b.line[i].x += shift
		}
	}

	for _, it := range b.line {
		var y float64
		if it.sup {
			y = float64(b.Y) + baseline - float64(maxAscent)
		} else {
			y = float64(b.Y) + baseline - float64(b.Fonts.Ascent(it.font))
		}
		b.DisplayList = append(b.DisplayList, DisplayItem{
			X:       b.X + it.x,
			Y:       int(y),
			Text:    it.text,
			Font:    it.font,
			Color:   it.color,
			ImageID: it.imageID,
		})
	}

	b.cursorY = int(baseline + 1.25*float64(maxDescent))
	b.line = nil
	b.cursorX = 0
}

// deriveFont derives a font from node's resolved style: weight/style
// come from node.Style verbatim (renaming "normal" style to Roman),
// size is node.Style["font-size"] in px scaled by 0.75 and truncated
// to an int, halved again inside a <sup>.
func deriveFont(node *html.Node, sup bool) (size int, weight Weight, style FontStyle) {
	weight = cssWeight(node.Style["font-weight"])
	style = cssStyle(node.Style["font-style"])

	px := 16.0
	if fs, ok := node.Style["font-size"]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(fs, "px"), 64); err == nil {
			px = v
		}
	}
	size = int(px * 0.75)
	if sup {
		size /= 2
	}
	return size, weight, style
}
