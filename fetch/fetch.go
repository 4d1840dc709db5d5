// Package fetch implements the HTTP/1.1 client and time-based response
// cache: raw-socket GET requests with redirect following, header
// defaulting, and a Cache-Control: max-age=N cache.
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wbe-dev/wbe/url"
)

const maxRedirects = 10

// Fetcher issues requests for a URL.Request-shaped operation. The method
// lives here rather than on url.URL itself so the socket/TLS/cache
// dependencies don't leak into the URL value type.
type Fetcher struct {
	Cache     *Cache
	Dialer    Dialer
	UserAgent string
	Now       func() time.Time
}

// NewFetcher builds a Fetcher with the production NetDialer and the
// standard library's wall clock.
func NewFetcher(cache *Cache, userAgent string) *Fetcher {
	return &Fetcher{
		Cache:     cache,
		Dialer:    NetDialer{},
		UserAgent: userAgent,
		Now:       time.Now,
	}
}

// Request performs a cache lookup, then redirect following (forwarding
// the caller's headers on each hop), then a body read to EOF. The
// returned body is the final response body; final is the URL the body
// was actually served from (after redirects).
func (f *Fetcher) Request(ctx context.Context, u *url.URL, headers map[string]string) (body string, final *url.URL, err error) {
	if u.Scheme == url.File {
		b, err := os.ReadFile(u.Path)
		if err != nil {
			return "", u, &Error{Kind: KindIO, URL: u.String(), Err: err}
		}
		return string(b), u, nil
	}

	now := f.Now()
	if cached, ok := f.Cache.Get(u, now); ok {
		return cached, u, nil
	}

	cur := u
	for hop := 0; ; hop++ {
		if hop >= maxRedirects {
			return "", cur, &Error{Kind: KindRedirectLoop, URL: cur.String(), Hop: hop}
		}

		resp, err := f.roundTrip(ctx, cur, headers)
		if err != nil {
			return "", cur, err
		}

		if resp.status >= 300 && resp.status < 400 {
			loc := resp.headers["location"]
			if loc == "" {
				return "", cur, &Error{Kind: KindBadStatus, URL: cur.String(), Hop: hop, Err: fmt.Errorf("redirect without Location")}
			}
			next, err := resolveRedirect(cur, loc)
			if err != nil {
				return "", cur, &Error{Kind: KindBadStatus, URL: cur.String(), Hop: hop, Err: err}
			}
			cur = next
			continue
		}

		if resp.status < 200 || resp.status >= 600 {
			return "", cur, &Error{Kind: KindBadStatus, URL: cur.String(), Hop: hop, Err: fmt.Errorf("status %d", resp.status)}
		}

		if maxAge, ok := parseMaxAge(resp.headers["cache-control"]); ok {
			f.Cache.Set(cur, resp.body, maxAge, now)
		}

		return resp.body, cur, nil
	}
}

// resolveRedirect applies the redirect-Location rule: a path-absolute
// Location is resolved against the current scheme/host/port; anything
// else is parsed as an absolute URL.
func resolveRedirect(cur *url.URL, loc string) (*url.URL, error) {
	if strings.HasPrefix(loc, "/") {
		return cur.Resolve(loc)
	}
	return url.Parse(loc)
}

type rawResponse struct {
	status  int
	reason  string
	headers map[string]string
	body    string
}

func (f *Fetcher) roundTrip(ctx context.Context, u *url.URL, callerHeaders map[string]string) (*rawResponse, error) {
	tlsEnabled := u.Scheme == url.HTTPS

	conn, err := f.Dialer.Dial(ctx, tlsEnabled, u.Host, u.Port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	reqHeaders := f.buildHeaders(u, callerHeaders)

	var reqBuf strings.Builder
	fmt.Fprintf(&reqBuf, "GET %s HTTP/1.1\r\n", u.Path)
	for k, v := range reqHeaders {
		fmt.Fprintf(&reqBuf, "%s: %s\r\n", k, v)
	}
	reqBuf.WriteString("\r\n")

	if _, err := io.WriteString(conn, reqBuf.String()); err != nil {
		return nil, &Error{Kind: KindIO, URL: u.String(), Err: err}
	}

	r := bufio.NewReader(conn)

	statusLine, err := readLine(r)
	if err != nil {
		return nil, &Error{Kind: KindIO, URL: u.String(), Err: err}
	}
	status, reason, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, &Error{Kind: KindBadStatus, URL: u.String(), Err: err}
	}

	respHeaders := map[string]string{}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, &Error{Kind: KindIO, URL: u.String(), Err: err}
		}
		if line == "" {
			break
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		respHeaders[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	if respHeaders["transfer-encoding"] != "" || respHeaders["content-encoding"] != "" {
		return nil, &Error{Kind: KindUnsupportedEncoding, URL: u.String()}
	}

	bodyBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: KindIO, URL: u.String(), Err: err}
	}

	return &rawResponse{status: status, reason: reason, headers: respHeaders, body: string(bodyBytes)}, nil
}

// buildHeaders assembles the lowercased header set: host, connection:
// close, user-agent (f.UserAgent, or "browser" when that is empty), then
// caller headers override on a last-writer-wins, case-insensitive basis.
func (f *Fetcher) buildHeaders(u *url.URL, caller map[string]string) map[string]string {
	h := map[string]string{
		"host":       u.Host,
		"connection": "close",
		"user-agent": f.userAgent(),
	}
	for k, v := range caller {
		h[strings.ToLower(k)] = v
	}
	return h
}

func (f *Fetcher) userAgent() string {
	if f.UserAgent != "" {
		return f.UserAgent
	}
	return "browser"
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseStatusLine(line string) (status int, reason string, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("malformed status line %q", line)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed status code in %q", line)
	}
	if len(parts) == 3 {
		reason = parts[2]
	}
	return n, reason, nil
}

// parseMaxAge recognizes only a literal "max-age=" prefix on one of the
// comma-separated directives; other directives (public, no-cache, ...)
// are scanned past but ignored.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	if cacheControl == "" {
		return 0, false
	}
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if n, ok := strings.CutPrefix(part, "max-age="); ok {
			secs, err := strconv.Atoi(n)
			if err != nil {
				continue
			}
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}
