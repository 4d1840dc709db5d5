// Package html implements a hand-rolled HTML tokenizer and
// tree-construction parser: a two-state tokenizer over comments and
// <script> bodies, implicit head/body insertion, and a stack-based
// tree builder. It deliberately does not implement the full HTML5
// parsing algorithm (golang.org/x/net/html) — see DESIGN.md.
package html

// Kind distinguishes the two node variants: Element and Text.
type Kind int

const (
	ElementKind Kind = iota
	TextKind
)

// Attr is one name/value pair from an Element's start tag. Attrs
// preserve insertion order.
type Attr struct {
	Key string
	Val string
}

// Node is a document-tree member: either a Text leaf or an Element with
// ordered attributes and children. Parent is a non-owning back-pointer;
// Children is the owning forward edge. Every Element has a parent
// except the root, without needing a weak-pointer type, since Go's GC
// reclaims the Parent/Children cycle.
type Node struct {
	Kind     Kind
	Tag      string // valid only when Kind == ElementKind
	Text     string // valid only when Kind == TextKind
	Attrs    []Attr
	Children []*Node
	Parent   *Node

	// Style is populated by the style resolver (package style); it is
	// nil until resolution has run, and fully populated afterward.
	Style map[string]string
}

// NewElement builds an unattached Element node.
func NewElement(tag string, attrs []Attr) *Node {
	return &Node{Kind: ElementKind, Tag: tag, Attrs: attrs}
}

// NewText builds an unattached Text node.
func NewText(text string) *Node {
	return &Node{Kind: TextKind, Text: text}
}

// AppendChild links c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// IsElement reports whether n is an Element with the given tag name.
func (n *Node) IsElement(tag string) bool {
	return n.Kind == ElementKind && n.Tag == tag
}

// Attr returns the first value for key, and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// nodeStack is the stack of "unfinished" elements: open elements
// waiting for their closing tag (or end of input).
type nodeStack []*Node

func (s *nodeStack) push(n *Node)  { *s = append(*s, n) }
func (s *nodeStack) pop() *Node    { n := (*s)[len(*s)-1]; *s = (*s)[:len(*s)-1]; return n }
func (s nodeStack) top() *Node {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}
