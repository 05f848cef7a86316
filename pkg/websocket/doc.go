// Package websocket implements the small subset of RFC 6455 the desktop
// shell needs to push compositor events to a browser tab: the HTTP upgrade
// handshake, frame encoding and decoding, and a Conn that answers pings and
// close frames while the caller writes text messages.
//
// Usage:
//
//	conn, err := websocket.Upgrade(w, r)
//	if err != nil {
//	    return
//	}
//	defer conn.Close()
//	_ = conn.WriteText(payload)
package websocket
