// Package style implements the cascade + inheritance resolver. It is
// the bridge between package html (the document tree) and package css
// (selectors and stylesheets): html.Node does not implement
// css.Elementish directly, so that neither package needs to import the
// other.
package style

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wbe-dev/wbe/css"
	"github.com/wbe-dev/wbe/html"
)

// inheritedDefaults are the root's implicit parent style.
var inheritedDefaults = map[string]string{
	"font-size":   "16px",
	"font-style":  "normal",
	"font-weight": "normal",
	"color":       "black",
}

// InheritedProperties lists the keys every resolved node must carry.
var InheritedProperties = []string{"font-size", "font-style", "font-weight", "color"}

// element adapts an *html.Node into css.Elementish without either
// package depending on the other.
type element struct {
	n *html.Node
}

func (e element) ElementTag() (string, bool) {
	if e.n == nil || e.n.Kind != html.ElementKind {
		return "", false
	}
	return e.n.Tag, true
}

func (e element) ElementParent() (css.Elementish, bool) {
	if e.n == nil || e.n.Parent == nil {
		return nil, false
	}
	return element{n: e.n.Parent}, true
}

// matchedRule pairs a parsed rule with its priority, for a stable
// priority sort that implements cascade ordering.
type matchedRule struct {
	rule css.Rule
	prio int
}

// Resolve walks root in tree order, setting n.Style on every node:
// inherit from parent, overlay matched sheet rules in priority order,
// then overlay the inline style="" attribute, then resolve a
// percentage font-size against the parent's resolved size.
func Resolve(root *html.Node, sheet css.Stylesheet) {
	resolve(root, nil, sheet)
}

func resolve(n *html.Node, parent *html.Node, sheet css.Stylesheet) {
	n.Style = computeStyle(n, parent, sheet)
	for _, c := range n.Children {
		resolve(c, n, sheet)
	}
}

func computeStyle(n *html.Node, parent *html.Node, sheet css.Stylesheet) map[string]string {
	result := map[string]string{}
	for _, key := range InheritedProperties {
		if parent != nil {
			if v, ok := parent.Style[key]; ok {
				result[key] = v
				continue
			}
		}
		result[key] = inheritedDefaults[key]
	}

	if n.Kind == html.ElementKind {
		matched := matchingRules(n, sheet)
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].prio < matched[j].prio
		})
		for _, m := range matched {
			for k, v := range m.rule.Body {
				result[k] = v
			}
		}

		if raw, ok := n.Attr("style"); ok {
			inline := css.ParseInlineBody(raw)
			for k, v := range inline {
				result[k] = v
			}
		}
	}

	if fs, ok := result["font-size"]; ok && strings.HasSuffix(fs, "%") {
		result["font-size"] = resolvePercentFontSize(fs, parent)
	}

	return result
}

// matchingRules returns every rule in sheet whose selector matches n,
// in source order (the caller stable-sorts by priority afterward).
func matchingRules(n *html.Node, sheet css.Stylesheet) []matchedRule {
	el := element{n: n}
	var out []matchedRule
	for _, rule := range sheet {
		if rule.Selector.Matches(el) {
			out = append(out, matchedRule{rule: rule, prio: rule.Selector.Priority()})
		}
	}
	return out
}

// resolvePercentFontSize computes pct/100 × parent_px; the root's
// implicit parent is the 16px default.
func resolvePercentFontSize(pct string, parent *html.Node) string {
	num := strings.TrimSuffix(pct, "%")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return inheritedDefaults["font-size"]
	}

	parentPx := 16.0
	if parent != nil {
		if pv, ok := parent.Style["font-size"]; ok {
			parentPx = pxValue(pv)
		}
	}

	return strconv.FormatFloat(f/100*parentPx, 'f', -1, 64) + "px"
}

// pxValue strips a trailing "px" and parses the number, defaulting to
// 16 on any malformed input.
func pxValue(s string) float64 {
	s = strings.TrimSuffix(s, "px")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 16.0
	}
	return f
}
