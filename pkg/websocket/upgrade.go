package websocket

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var (
	ErrNotWebSocket  = errors.New("websocket: not a websocket upgrade request")
	ErrBadVersion    = errors.New("websocket: unsupported Sec-WebSocket-Version")
	ErrBadKey        = errors.New("websocket: missing or malformed Sec-WebSocket-Key")
	ErrBadAccept     = errors.New("websocket: Sec-WebSocket-Accept mismatch")
	ErrNoHijack      = errors.New("websocket: response writer cannot be hijacked")
	ErrUnsupportedWS = errors.New("websocket: unsupported url scheme")
)

// HandshakeError carries the HTTP status a rejected upgrade should get.
type HandshakeError struct {
	Err    error
	Status int
}

func (e *HandshakeError) Error() string { return e.Err.Error() }
func (e *HandshakeError) Unwrap() error { return e.Err }

// IsUpgrade reports whether r asks for a websocket upgrade.
func IsUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		headerContains(r.Header, "Connection", "upgrade")
}

// Upgrade validates r, hijacks the connection and writes the 101 response.
// On a *HandshakeError nothing has been written to w yet.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	if r.Method != http.MethodGet || !IsUpgrade(r) {
		return nil, &HandshakeError{Err: ErrNotWebSocket, Status: http.StatusBadRequest}
	}
	if r.Header.Get("Sec-WebSocket-Version") != "13" {
		return nil, &HandshakeError{Err: ErrBadVersion, Status: http.StatusBadRequest}
	}
	key := r.Header.Get("Sec-WebSocket-Key")
	if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != 16 {
		return nil, &HandshakeError{Err: ErrBadKey, Status: http.StatusBadRequest}
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, &HandshakeError{Err: ErrNoHijack, Status: http.StatusInternalServerError}
	}
	nc, rw, err := hj.Hijack()
	if err != nil {
		return nil, fmt.Errorf("websocket: hijack: %w", err)
	}
	// The server's read and write timeouts do not apply to the upgraded stream.
	_ = nc.SetDeadline(time.Time{})

	fmt.Fprintf(rw.Writer, "HTTP/1.1 101 Switching Protocols\r\n"+
		"Upgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n", acceptKey(key))
	if err := rw.Writer.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("websocket: write handshake: %w", err)
	}
	return newConn(nc, rw.Reader, false), nil
}

// Dial opens a client connection to a ws:// URL.
func Dial(ctx context.Context, rawURL string) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedWS, u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	}

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		nc.Close()
		return nil, err
	}
	key := base64.StdEncoding.EncodeToString(raw[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+u.Host+u.RequestURI(), nil)
	if err != nil {
		nc.Close()
		return nil, err
	}
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", key)
	if err := req.Write(nc); err != nil {
		nc.Close()
		return nil, err
	}

	br := bufio.NewReader(nc)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		nc.Close()
		return nil, err
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		resp.Body.Close()
		nc.Close()
		return nil, &HandshakeError{Err: ErrNotWebSocket, Status: resp.StatusCode}
	}
	if resp.Header.Get("Sec-WebSocket-Accept") != acceptKey(key) {
		nc.Close()
		return nil, ErrBadAccept
	}
	_ = nc.SetDeadline(time.Time{})
	return newConn(nc, br, true), nil
}

func acceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func headerContains(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
