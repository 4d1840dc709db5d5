package paint

import "github.com/wbe-dev/wbe/layout"

// Paint walks doc's layout tree and returns a flat, source-order
// display list.
func Paint(doc *layout.DocumentLayout, fonts layout.FontMetrics) []Command {
	var out []Command
	if doc.Child != nil {
		paintBlock(doc.Child, fonts, &out)
	}
	return out
}

// paintBlock emits b's own commands — a DrawRect for a non-
// transparent background, then a DrawText (or DrawImage, for the
// hard-coded emoji resource) per inline display entry — then recurses
// into its children in source order.
func paintBlock(b *layout.BlockLayout, fonts layout.FontMetrics, out *[]Command) {
	if bg, ok := b.Node.Style["background-color"]; ok && bg != "" && bg != "transparent" {
		*out = append(*out, DrawRect(b.X, b.Y, b.X+b.Width, b.Y+b.Height, bg))
	}

	for _, it := range b.DisplayList {
		if it.ImageID != "" {
			size := fonts.Linespace(it.Font)
			*out = append(*out, DrawImage(it.X, it.Y, size, it.ImageID))
			continue
		}
		*out = append(*out, DrawText(it.X, it.Y, it.Text, it.Font, it.Color, fonts.Linespace(it.Font)))
	}

	for _, c := range b.Children {
		paintBlock(c, fonts, out)
	}
}

// Cull drops commands whose top exceeds scroll+height or whose bottom
// is above scroll, leaving only what the current viewport can show.
func Cull(commands []Command, scroll, height int) []Command {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		if c.Top > scroll+height || c.Bottom < scroll {
			continue
		}
		out = append(out, c)
	}
	return out
}
