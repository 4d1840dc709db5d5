package fetch

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbe-dev/wbe/url"
)

// scriptedDialer replays one canned raw HTTP response per Dial call,
// grounded on the teacher's httptest.NewRecorder() seam (httpreq.go,
// httpcall.go) for driving HTTP logic without a live socket.
type scriptedDialer struct {
	responses []string
	calls     int
	hosts     []string
}

func (d *scriptedDialer) Dial(_ context.Context, _ bool, host string, _ int) (net.Conn, error) {
	resp := d.responses[d.calls]
	d.hosts = append(d.hosts, host)
	d.calls++

	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 8192)
		_, _ = server.Read(buf)
		_, _ = server.Write([]byte(resp))
		_ = server.Close()
	}()
	return client, nil
}

func newTestFetcher(d *scriptedDialer, now time.Time) *Fetcher {
	return &Fetcher{
		Cache:     NewCache(0),
		Dialer:    d,
		UserAgent: "browser",
		Now:       func() time.Time { return now },
	}
}

func TestRequestReadsBody(t *testing.T) {
	d := &scriptedDialer{responses: []string{
		"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\nhello",
	}}
	f := newTestFetcher(d, time.Now())

	u, err := url.Parse("http://example.com/index.html")
	require.NoError(t, err)

	body, final, err := f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
	assert.Equal(t, u.String(), final.String())
}

func TestRequestRejectsTransferEncoding(t *testing.T) {
	d := &scriptedDialer{responses: []string{
		"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n",
	}}
	f := newTestFetcher(d, time.Now())

	u, err := url.Parse("http://example.com/")
	require.NoError(t, err)

	_, _, err = f.Request(context.Background(), u, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindUnsupportedEncoding, fe.Kind)
}

func TestRequestFollowsNineRedirects(t *testing.T) {
	responses := make([]string, 0, 10)
	for i := 0; i < 9; i++ {
		responses = append(responses, "HTTP/1.1 302 Found\r\nLocation: /next\r\n\r\n")
	}
	responses = append(responses, "HTTP/1.1 200 OK\r\n\r\ndone")

	d := &scriptedDialer{responses: responses}
	f := newTestFetcher(d, time.Now())

	u, err := url.Parse("http://example.com/start")
	require.NoError(t, err)

	body, _, err := f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", body)
}

func TestRequestTenRedirectsIsLoop(t *testing.T) {
	responses := make([]string, 0, 11)
	for i := 0; i < 11; i++ {
		responses = append(responses, "HTTP/1.1 302 Found\r\nLocation: /next\r\n\r\n")
	}

	d := &scriptedDialer{responses: responses}
	f := newTestFetcher(d, time.Now())

	u, err := url.Parse("http://example.com/start")
	require.NoError(t, err)

	_, _, err = f.Request(context.Background(), u, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindRedirectLoop, fe.Kind)
}

func TestRequestHeaderOverride(t *testing.T) {
	d := &scriptedDialer{responses: []string{
		"HTTP/1.1 200 OK\r\n\r\nok",
	}}
	f := newTestFetcher(d, time.Now())

	u, err := url.Parse("http://example.com/")
	require.NoError(t, err)

	_, _, err = f.Request(context.Background(), u, map[string]string{"Host": "override.example"})
	require.NoError(t, err)

	headers := f.buildHeaders(u, map[string]string{"Host": "override.example"})
	assert.Equal(t, "override.example", headers["host"])
}

func TestCacheTTL(t *testing.T) {
	u, err := url.Parse("http://example.com/")
	require.NoError(t, err)

	d := &scriptedDialer{responses: []string{
		"HTTP/1.1 200 OK\r\nCache-Control: max-age=60\r\n\r\nfirst",
		"HTTP/1.1 200 OK\r\n\r\nsecond",
	}}

	t0 := time.Now()
	f := &Fetcher{Cache: NewCache(0), Dialer: d, Now: func() time.Time { return t0 }}

	body, _, err := f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", body)

	// second request 1s later, still within max-age: returns cached bytes,
	// no second dial.
	f.Now = func() time.Time { return t0.Add(1 * time.Second) }
	body, _, err = f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", body)
	assert.Equal(t, 1, d.calls)

	// request at t0+60s: expired, performs the network request again.
	f.Now = func() time.Time { return t0.Add(60 * time.Second) }
	body, _, err = f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", body)
	assert.Equal(t, 2, d.calls)
}

func TestFileSchemeBypassesCache(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/test.html"
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>hello</p></body></html>"), 0o644))

	u, err := url.Parse("file://" + path)
	require.NoError(t, err)

	f := &Fetcher{Cache: NewCache(0), Now: time.Now}
	body, _, err := f.Request(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Contains(t, body, "hello")
	assert.Equal(t, 0, f.Cache.Len())
}
