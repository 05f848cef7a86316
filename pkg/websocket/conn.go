package websocket

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// CloseError is returned by ReadMessage once the peer sent a close frame.
type CloseError struct {
	Code   uint16
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("websocket: closed by peer (%d %s)", e.Code, e.Reason)
}

// Conn is an established websocket. Writes are safe for concurrent use;
// ReadMessage must only be called from one goroutine.
type Conn struct {
	nc     net.Conn
	br     *bufio.Reader
	client bool

	// WriteTimeout bounds every frame write. Zero disables it.
	WriteTimeout time.Duration
	// ReadLimit bounds inbound data messages.
	ReadLimit int

	wmu       sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(nc net.Conn, br *bufio.Reader, client bool) *Conn {
	return &Conn{
		nc:        nc,
		br:        br,
		client:    client,
		ReadLimit: MaxPayload,
		done:      make(chan struct{}),
	}
}

// Done is closed once the connection is torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// WriteText sends one text message.
func (c *Conn) WriteText(p []byte) error {
	return c.write(&Frame{Fin: true, Opcode: OpText, Payload: p})
}

// Ping sends a ping control frame.
func (c *Conn) Ping(payload []byte) error {
	return c.write(&Frame{Fin: true, Opcode: OpPing, Payload: payload})
}

func (c *Conn) write(f *Frame) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	f.Masked = c.client

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.WriteTimeout > 0 {
		_ = c.nc.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
	}
	return WriteFrame(c.nc, f)
}

// ReadMessage returns the next data message. Pings are answered and pongs
// dropped along the way. A close frame from the peer is echoed, the
// connection is torn down and a *CloseError is returned.
func (c *Conn) ReadMessage() (Opcode, []byte, error) {
	var (
		op  Opcode
		msg []byte
	)
	for {
		f, err := ReadFrame(c.br, c.ReadLimit)
		if err != nil {
			var fe *FrameError
			if errors.As(err, &fe) {
				code := CloseProtocolError
				if errors.Is(err, ErrFrameTooLarge) {
					code = CloseTooLarge
				}
				_ = c.CloseWithStatus(code, fe.Err.Error())
			} else {
				c.teardown()
			}
			return 0, nil, err
		}
		if !c.client && !f.Masked {
			_ = c.CloseWithStatus(CloseProtocolError, "unmasked frame")
			return 0, nil, ErrUnmaskedClient
		}

		switch f.Opcode {
		case OpPing:
			if err := c.write(&Frame{Fin: true, Opcode: OpPong, Payload: f.Payload}); err != nil {
				return 0, nil, err
			}
			continue
		case OpPong:
			continue
		case OpClose:
			ce := &CloseError{Code: CloseCode(f.Payload)}
			if len(f.Payload) > 2 {
				ce.Reason = string(f.Payload[2:])
			}
			_ = c.CloseWithStatus(CloseNormal, "")
			return 0, nil, ce
		case OpContinuation:
			if op == 0 {
				_ = c.CloseWithStatus(CloseProtocolError, "unexpected continuation")
				return 0, nil, &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
			}
		default:
			if op != 0 {
				_ = c.CloseWithStatus(CloseProtocolError, "interleaved message")
				return 0, nil, &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
			}
			op = f.Opcode
		}

		if len(msg)+len(f.Payload) > c.ReadLimit {
			_ = c.CloseWithStatus(CloseTooLarge, "message too large")
			return 0, nil, &FrameError{Err: ErrFrameTooLarge, Opcode: op}
		}
		msg = append(msg, f.Payload...)
		if f.Fin {
			return op, msg, nil
		}
	}
}

// CloseWithStatus sends a close frame and tears the connection down.
func (c *Conn) CloseWithStatus(code uint16, reason string) error {
	err := c.write(&Frame{Fin: true, Opcode: OpClose, Payload: closePayload(code, reason)})
	c.teardown()
	if errors.Is(err, ErrConnectionClosed) {
		return nil
	}
	return err
}

// Close sends a normal closure and releases the connection.
func (c *Conn) Close() error {
	return c.CloseWithStatus(CloseNormal, "")
}

func (c *Conn) teardown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.nc.Close()
	})
}
