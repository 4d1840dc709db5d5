// Package layout implements the two-mode (block/inline) layout engine:
// a DocumentLayout root wrapping one BlockLayout, recursive line
// breaking with font-metric-driven word wrapping, soft-hyphen
// splitting, superscript, abbreviation rendering, and header
// centering.
package layout

import "github.com/wbe-dev/wbe/html"

// DocumentLayout is the root box: a single BlockLayout child inset by
// HStep/VStep on all sides.
type DocumentLayout struct {
	Root  *html.Node
	Fonts FontMetrics

	Width, HStep, VStep int

	Child  *BlockLayout
	Height int
}

// NewDocument builds a DocumentLayout ready for Layout.
func NewDocument(root *html.Node, fonts FontMetrics, width, hstep, vstep int) *DocumentLayout {
	return &DocumentLayout{Root: root, Fonts: fonts, Width: width, HStep: hstep, VStep: vstep}
}

// Layout places the single BlockLayout child at x=HStep, y=VStep with
// width=Width-2*HStep; the child's height becomes the document's
// height.
func (d *DocumentLayout) Layout() {
	child := &BlockLayout{Node: d.Root, Fonts: d.Fonts}
	child.X = d.HStep
	child.Y = d.VStep
	child.Width = d.Width - 2*d.HStep
	child.Layout()

	d.Child = child
	d.Height = child.Height
}

// ClampScroll clamps scroll to [0, max(documentHeight+2*vstep-height, 0)].
func ClampScroll(scroll, documentHeight, vstep, height int) int {
	max := documentHeight + 2*vstep - height
	if max < 0 {
		max = 0
	}
	if scroll < 0 {
		return 0
	}
	if scroll > max {
		return max
	}
	return scroll
}
