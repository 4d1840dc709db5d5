// Package paint implements the paint-command emitter: a tree walk
// over a layout that produces a flat, JSON-serializable display list
// for a canvas shell, respecting a vertical viewport for scroll
// culling.
package paint

import "github.com/wbe-dev/wbe/layout"

// Kind tags a Command's variant: Rect, Text, or Image (Image is for
// the hard-coded emoji resource).
type Kind string

const (
	RectKind  Kind = "rect"
	TextKind  Kind = "text"
	ImageKind Kind = "image"
)

// Command is one paint instruction. It carries Top/Bottom on every
// variant so the shell can cull it against the scroll viewport without
// switching on Kind first.
type Command struct {
	Kind Kind `json:"kind"`

	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`

	Color string       `json:"color,omitempty"`
	Text  string       `json:"text,omitempty"`
	Font  layout.FontID `json:"-"`

	ImageID string `json:"image_id,omitempty"`
}

// DrawRect builds a filled-rectangle command.
func DrawRect(left, top, right, bottom int, color string) Command {
	return Command{Kind: RectKind, Left: left, Top: top, Right: right, Bottom: bottom, Color: color}
}

// DrawText builds a text command. height is the font's linespace,
// used only to compute Bottom for viewport culling.
func DrawText(x, y int, text string, font layout.FontID, color string, height int) Command {
	return Command{Kind: TextKind, Left: x, Top: y, Right: x, Bottom: y + height, Text: text, Font: font, Color: color}
}

// DrawImage builds an image command at the glyph's position.
func DrawImage(x, y, size int, imageID string) Command {
	return Command{Kind: ImageKind, Left: x, Top: y, Right: x + size, Bottom: y + size, ImageID: imageID}
}
