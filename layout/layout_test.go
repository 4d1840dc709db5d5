package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbe-dev/wbe/css"
	"github.com/wbe-dev/wbe/html"
	"github.com/wbe-dev/wbe/style"
)

// fontKey is the fakeFonts FontID: a plain value so Ascent/Descent can
// depend on size without any external registry, unlike a real shell's
// FontMetrics implementation.
type fontKey struct {
	size   int
	weight Weight
	style  FontStyle
}

type fakeFonts struct{}

func (fakeFonts) GetFont(size int, weight Weight, style FontStyle) FontID {
	return fontKey{size: size, weight: weight, style: style}
}

func (fakeFonts) Measure(f FontID, s string) int {
	return len([]rune(s)) * 8
}

func (fakeFonts) Ascent(f FontID) int {
	return f.(fontKey).size
}

func (fakeFonts) Descent(f FontID) int {
	return f.(fontKey).size / 4
}

func (fakeFonts) Linespace(f FontID) int {
	k := f.(fontKey)
	return k.size + k.size/4
}

func collectDisplay(b *BlockLayout) []DisplayItem {
	out := append([]DisplayItem{}, b.DisplayList...)
	for _, c := range b.Children {
		out = append(out, collectDisplay(c)...)
	}
	return out
}

func TestDocumentLayoutPlacesTextPastMargins(t *testing.T) {
	root := html.Parse("<html><body><p>hello</p></body></html>")
	style.Resolve(root, css.Stylesheet{})

	doc := NewDocument(root, fakeFonts{}, 800, 13, 18)
	doc.Layout()

	items := collectDisplay(doc.Child)
	require.NotEmpty(t, items)

	var found bool
	for _, it := range items {
		if it.Text == "hello" {
			found = true
			assert.GreaterOrEqual(t, it.X, 13)
			assert.GreaterOrEqual(t, it.Y, 18)
		}
	}
	assert.True(t, found, "expected a DisplayItem for \"hello\"")
}

func TestLayoutIdempotence(t *testing.T) {
	root := html.Parse("<html><body><p>hello there world</p></body></html>")
	style.Resolve(root, css.Stylesheet{})

	doc1 := NewDocument(root, fakeFonts{}, 800, 13, 18)
	doc1.Layout()
	doc2 := NewDocument(root, fakeFonts{}, 800, 13, 18)
	doc2.Layout()

	items1 := collectDisplay(doc1.Child)
	items2 := collectDisplay(doc2.Child)

	if diff := cmp.Diff(items1, items2, cmp.AllowUnexported(fontKey{})); diff != "" {
		t.Errorf("layout is not idempotent (-first +second):\n%s", diff)
	}
}

func TestSoftHyphenSplit(t *testing.T) {
	text := html.NewText("un­happy")
	text.Style = map[string]string{"font-size": "16px", "font-weight": "normal", "font-style": "normal", "color": "black"}

	b := &BlockLayout{Node: text, Fonts: fakeFonts{}, Width: 40}
	b.Layout()

	require.Len(t, b.DisplayList, 2)
	assert.Equal(t, "un-", b.DisplayList[0].Text)
	assert.Equal(t, "happy", b.DisplayList[1].Text)
	assert.Greater(t, b.DisplayList[1].Y, b.DisplayList[0].Y)
}

func TestHeaderCentering(t *testing.T) {
	text := html.NewText("hi")
	text.Style = map[string]string{"font-size": "16px", "font-weight": "normal", "font-style": "normal", "color": "black"}
	h1 := html.NewElement("h1", nil)
	h1.Style = text.Style
	h1.AppendChild(text)

	b := &BlockLayout{Node: h1, Fonts: fakeFonts{}, Width: 100}
	b.Layout()

	require.Len(t, b.DisplayList, 1)
	// "hi" measures 16px; centered in a 100-wide box leaves (100-16)/2=42.
	assert.Equal(t, 42, b.DisplayList[0].X)
}

func TestSuperscriptUsesLineBaseline(t *testing.T) {
	normalText := html.NewText("2")
	normalText.Style = map[string]string{"font-size": "16px", "font-weight": "normal", "font-style": "normal", "color": "black"}
	supText := html.NewText("nd")
	supText.Style = normalText.Style

	sup := html.NewElement("sup", nil)
	sup.Style = normalText.Style
	sup.AppendChild(supText)

	p := html.NewElement("p", nil)
	p.Style = normalText.Style
	p.AppendChild(normalText)
	p.AppendChild(sup)

	b := &BlockLayout{Node: p, Fonts: fakeFonts{}, Width: 200}
	b.Layout()

	require.Len(t, b.DisplayList, 2)
	// size=int(16*0.75)=12 for "2", halved to 6 inside <sup>; the line's
	// max ascent is 12 (from "2"), so the sup glyph's baseline is
	// baseline-maxAscent(12), not baseline-ownAscent(6).
	assert.Equal(t, b.DisplayList[0].Y, b.DisplayList[1].Y)
}

func TestAbbreviationSplitsCaseRuns(t *testing.T) {
	text := html.NewText("Sale")
	text.Style = map[string]string{"font-size": "16px", "font-weight": "normal", "font-style": "normal", "color": "black"}
	abbr := html.NewElement("abbr", nil)
	abbr.Style = text.Style
	abbr.AppendChild(text)

	b := &BlockLayout{Node: abbr, Fonts: fakeFonts{}, Width: 200}
	b.Layout()

	require.Len(t, b.DisplayList, 2)
	assert.Equal(t, "S", b.DisplayList[0].Text)
	assert.Equal(t, fontKey{size: 12, weight: Normal, style: Roman}, b.DisplayList[0].Font)
	assert.Equal(t, "ALE", b.DisplayList[1].Text)
	assert.Equal(t, fontKey{size: 9, weight: Bold, style: Roman}, b.DisplayList[1].Font)
}

func TestScrollClampStaysZeroWhenDocumentFits(t *testing.T) {
	assert.Equal(t, 0, ClampScroll(100, 50, 18, 600))
}

func TestScrollClampLimitsToMaxScroll(t *testing.T) {
	// documentHeight=1000, vstep=18, height=600 -> max=1000+36-600=436
	assert.Equal(t, 436, ClampScroll(1000, 1000, 18, 600))
}
