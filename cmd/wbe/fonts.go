package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/wbe-dev/wbe/layout"
)

// newFontsCmd builds `wbe fonts`: a small diagnostic command printing
// the metrics basicFontMetrics would report for a handful of common
// sizes, useful for sanity-checking layout math without loading a
// page.
func newFontsCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "Print the metrics the built-in font shell reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fonts := newBasicFontMetrics()
			for _, size := range []int{12, 16, 20, 24} {
				for _, weight := range []layout.Weight{layout.Normal, layout.Bold} {
					f := fonts.GetFont(size, weight, layout.Roman)
					fmt.Printf("size=%-3d weight=%-6s ascent=%-3d descent=%-3d linespace=%-3d\n",
						size, weight, fonts.Ascent(f), fonts.Descent(f), fonts.Linespace(f))
				}
			}
			return nil
		},
	}
}

// fontKey identifies one GetFont request; basicFontMetrics memoizes by
// this key the same way layout.FontMetrics implementations are
// expected to.
type fontKey struct {
	size   int
	weight layout.Weight
	style  layout.FontStyle
}

// basicFontMetrics is the CLI's FontMetrics shell. No font-rendering
// or glyph-measurement library appears anywhere in the example pack
// (DESIGN.md), so metrics here are a deliberately simple approximation
// of a proportional typeface rather than a real glyph table: average
// advance width scales with point size, ascent/descent follow typical
// typographic ratios, and bold/italic both widen the advance slightly
// to keep bold/italic text from under-measuring against roman.
//
// A single Engine (and its Fonts) is shared across every devtools
// websocket connection, so GetFont's cache write must be safe for
// concurrent callers.
type basicFontMetrics struct {
	mu    sync.Mutex
	cache map[fontKey]fontKey
}

func newBasicFontMetrics() *basicFontMetrics {
	return &basicFontMetrics{cache: map[fontKey]fontKey{}}
}

func (f *basicFontMetrics) GetFont(size int, weight layout.Weight, style layout.FontStyle) layout.FontID {
	k := fontKey{size: size, weight: weight, style: style}
	f.mu.Lock()
	f.cache[k] = k
	f.mu.Unlock()
	return k
}

func (f *basicFontMetrics) Measure(id layout.FontID, text string) int {
	k := id.(fontKey)
	advance := float64(k.size) * 0.56
	if k.weight == layout.Bold {
		advance *= 1.08
	}
	if k.style == layout.Italic {
		advance *= 1.02
	}
	return int(advance * float64(len([]rune(text))))
}

func (f *basicFontMetrics) Ascent(id layout.FontID) int {
	k := id.(fontKey)
	return int(float64(k.size) * 0.8)
}

func (f *basicFontMetrics) Descent(id layout.FontID) int {
	k := id.(fontKey)
	return int(float64(k.size) * 0.2)
}

func (f *basicFontMetrics) Linespace(id layout.FontID) int {
	return f.Ascent(id) + f.Descent(id)
}
