package websocket

import (
	"errors"
)

// Opcode is a frame opcode from RFC 6455 section 5.2.
type Opcode uint8

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// IsControl reports whether o is a close, ping or pong opcode.
func (o Opcode) IsControl() bool {
	return o >= OpClose
}

func (o Opcode) valid() bool {
	switch o {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return "unknown"
	}
}

// Close status codes used by the shell.
const (
	CloseNormal        uint16 = 1000
	CloseGoingAway     uint16 = 1001
	CloseProtocolError uint16 = 1002
	CloseTooLarge      uint16 = 1009
)

// Frame is a single decoded frame. Payload is always unmasked.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	Payload []byte
}

const (
	// MaxControlPayload is the RFC limit for close, ping and pong payloads.
	MaxControlPayload = 125
	// MaxPayload bounds inbound data frames. Clients only send small
	// control messages so this stays low.
	MaxPayload = 64 * 1024
)

var (
	ErrInvalidOpcode    = errors.New("websocket: invalid opcode")
	ErrReservedBits     = errors.New("websocket: reserved bits set")
	ErrFrameTooLarge    = errors.New("websocket: frame too large")
	ErrControlTooLong   = errors.New("websocket: control frame payload too long")
	ErrFragmentedCtrl   = errors.New("websocket: fragmented control frame")
	ErrUnmaskedClient   = errors.New("websocket: client frame not masked")
	ErrConnectionClosed = errors.New("websocket: connection closed")
)

// FrameError ties a protocol violation to the opcode that caused it.
type FrameError struct {
	Err    error
	Opcode Opcode
}

func (e *FrameError) Error() string {
	return e.Err.Error() + " (" + e.Opcode.String() + ")"
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func (f *Frame) validate() error {
	if !f.Opcode.valid() {
		return &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
	}
	if f.Opcode.IsControl() {
		if !f.Fin {
			return &FrameError{Err: ErrFragmentedCtrl, Opcode: f.Opcode}
		}
		if len(f.Payload) > MaxControlPayload {
			return &FrameError{Err: ErrControlTooLong, Opcode: f.Opcode}
		}
	}
	return nil
}
