package wbe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbe-dev/wbe/fetch"
	"github.com/wbe-dev/wbe/layout"
)

// scriptedDialer replays one canned raw HTTP response per Dial call,
// keyed by host, grounded on fetch_test.go's dialer of the same name.
type scriptedDialer struct {
	byHost map[string][]string
	calls  map[string]int
}

func (d *scriptedDialer) Dial(_ context.Context, _ bool, host string, _ int) (net.Conn, error) {
	responses := d.byHost[host]
	i := d.calls[host]
	d.calls[host]++
	resp := responses[i]

	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 8192)
		_, _ = server.Read(buf)
		_, _ = server.Write([]byte(resp))
		_ = server.Close()
	}()
	return client, nil
}

type fontKey struct {
	size   int
	weight layout.Weight
	style  layout.FontStyle
}

type fakeFonts struct{}

func (fakeFonts) GetFont(size int, weight layout.Weight, style layout.FontStyle) layout.FontID {
	return fontKey{size: size, weight: weight, style: style}
}
func (fakeFonts) Measure(f layout.FontID, s string) int { return len([]rune(s)) * 8 }
func (fakeFonts) Ascent(f layout.FontID) int            { return f.(fontKey).size }
func (fakeFonts) Descent(f layout.FontID) int           { return f.(fontKey).size / 4 }
func (fakeFonts) Linespace(f layout.FontID) int         { k := f.(fontKey); return k.size + k.size/4 }

func testEngine(t *testing.T, d *scriptedDialer) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DefaultStylesheetPath = ""
	e := NewEngine(cfg, fakeFonts{}, nil)
	e.fetcher = &fetch.Fetcher{
		Cache:     fetch.NewCache(0),
		Dialer:    d,
		UserAgent: "wbe-test",
		Now:       time.Now,
	}
	return e
}

func TestLoadParsesAndLaysOutDocument(t *testing.T) {
	d := &scriptedDialer{
		calls: map[string]int{},
		byHost: map[string][]string{
			"example.com": {
				"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<html><body><p>hello</p></body></html>",
			},
		},
	}
	e := testEngine(t, d)

	page, err := e.Load(context.Background(), "http://example.com/")
	require.NoError(t, err)
	assert.NotNil(t, page.Doc)
	assert.Greater(t, page.Doc.Height, 0)

	var found bool
	for _, c := range e.Visible(page) {
		if c.Kind == "text" && c.Text == "hello" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadFailsOnBadStatus(t *testing.T) {
	d := &scriptedDialer{
		calls: map[string]int{},
		byHost: map[string][]string{
			"example.com": {"HTTP/1.1 OK\r\n\r\n"},
		},
	}
	e := testEngine(t, d)

	_, err := e.Load(context.Background(), "http://example.com/")
	require.Error(t, err)

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindBadResponse, ee.Kind)
	assert.True(t, ee.Kind.Fatal())
}

func TestLoadSwallowsStylesheetFetchFailure(t *testing.T) {
	d := &scriptedDialer{
		calls: map[string]int{},
		byHost: map[string][]string{
			"example.com": {
				"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" +
					`<html><head><link rel="stylesheet" href="/style.css"></head>` +
					`<body><p>hello</p></body></html>`,
				"HTTP/1.1 OK\r\n\r\n",
			},
		},
	}
	e := testEngine(t, d)

	// the stylesheet request fails with a malformed status line (no status
	// code); resolveStylesheets
	// must swallow that rather than fail the whole page load.
	page, err := e.Load(context.Background(), "http://example.com/")
	require.NoError(t, err)
	assert.NotNil(t, page)
}

func TestReflowReclampsScroll(t *testing.T) {
	d := &scriptedDialer{calls: map[string]int{}, byHost: map[string][]string{
		"example.com": {"HTTP/1.1 200 OK\r\n\r\n<p>hi</p>"},
	}}
	e := testEngine(t, d)

	page, err := e.Load(context.Background(), "http://example.com/")
	require.NoError(t, err)

	page.Scroll = 1_000_000
	e.Reflow(page, 400)
	assert.LessOrEqual(t, page.Scroll, page.Doc.Height+2*e.Config.VStep)
}

func TestScrollClampsToDocumentExtent(t *testing.T) {
	d := &scriptedDialer{calls: map[string]int{}, byHost: map[string][]string{
		"example.com": {"HTTP/1.1 200 OK\r\n\r\n<p>hi</p>"},
	}}
	e := testEngine(t, d)

	page, err := e.Load(context.Background(), "http://example.com/")
	require.NoError(t, err)

	e.Scroll(page, -1_000_000)
	assert.Equal(t, 0, page.Scroll)

	e.Scroll(page, 1_000_000)
	assert.LessOrEqual(t, page.Scroll, page.Doc.Height+2*e.Config.VStep)
}

func TestEngineErrorLogValue(t *testing.T) {
	ee := &EngineError{Kind: KindRedirectLoop, URL: "http://example.com/", Hop: 3}
	v := ee.LogValue()
	assert.Equal(t, "Group", v.Kind().String())
}
