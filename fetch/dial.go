package fetch

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
)

// Dialer opens the transport connection for a request. The default
// dials a real TCP/TLS socket; tests substitute one backed by net.Pipe or
// an httptest-style in-memory listener, grounded on the teacher's use of
// httptest.NewRecorder() to drive HTTP logic without a live network
// (httpreq.go, httpcall.go).
type Dialer interface {
	Dial(ctx context.Context, tlsEnabled bool, host string, port int) (net.Conn, error)
}

// NetDialer is the production Dialer: plain TCP, or TLS via the platform
// default trust store for https.
type NetDialer struct {
	// TLSConfig is cloned for each TLS connection, with ServerName set to
	// the dialed host when it is empty; a nil value means crypto/tls's
	// zero-value defaults (platform trust store).
	TLSConfig *tls.Config
}

func (d NetDialer) Dial(ctx context.Context, tlsEnabled bool, host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Kind: KindIO, URL: addr, Err: err}
	}

	if !tlsEnabled {
		return conn, nil
	}

	tlsConn := tls.Client(conn, d.tlsConfigFor(host))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, &Error{Kind: KindTLS, URL: addr, Err: err}
	}
	return tlsConn, nil
}

func (d NetDialer) tlsConfigFor(host string) *tls.Config {
	cfg := d.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	return cfg
}
