package websocket

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// ReadFrame decodes one frame from r. Payloads longer than limit are
// rejected before they are read.
func ReadFrame(r io.Reader, limit int) (*Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	f := &Frame{
		Fin:    header[0]&0x80 != 0,
		Opcode: Opcode(header[0] & 0x0F),
		Masked: header[1]&0x80 != 0,
	}
	if header[0]&0x70 != 0 {
		return nil, &FrameError{Err: ErrReservedBits, Opcode: f.Opcode}
	}

	n := uint64(header[1] & 0x7F)
	switch n {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		n = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		n = binary.BigEndian.Uint64(ext[:])
	}
	if n > uint64(limit) {
		return nil, &FrameError{Err: ErrFrameTooLarge, Opcode: f.Opcode}
	}

	var mask [4]byte
	if f.Masked {
		if _, err := io.ReadFull(r, mask[:]); err != nil {
			return nil, err
		}
	}
	if n > 0 {
		f.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, err
		}
		if f.Masked {
			maskBytes(mask, f.Payload)
		}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame encodes f to w in a single write. When f.Masked is set a fresh
// masking key is generated, as clients must do.
func WriteFrame(w io.Writer, f *Frame) error {
	if err := f.validate(); err != nil {
		return err
	}

	n := len(f.Payload)
	size := 2 + n
	switch {
	case n > 0xFFFF:
		size += 8
	case n > 125:
		size += 2
	}
	if f.Masked {
		size += 4
	}

	buf := make([]byte, size)
	buf[0] = byte(f.Opcode & 0x0F)
	if f.Fin {
		buf[0] |= 0x80
	}
	if f.Masked {
		buf[1] = 0x80
	}
	pos := 2
	switch {
	case n > 0xFFFF:
		buf[1] |= 127
		binary.BigEndian.PutUint64(buf[pos:], uint64(n))
		pos += 8
	case n > 125:
		buf[1] |= 126
		binary.BigEndian.PutUint16(buf[pos:], uint16(n))
		pos += 2
	default:
		buf[1] |= byte(n)
	}

	if f.Masked {
		var mask [4]byte
		if _, err := rand.Read(mask[:]); err != nil {
			return err
		}
		copy(buf[pos:], mask[:])
		pos += 4
		copy(buf[pos:], f.Payload)
		maskBytes(mask, buf[pos:])
	} else {
		copy(buf[pos:], f.Payload)
	}

	_, err := w.Write(buf)
	return err
}

func maskBytes(mask [4]byte, b []byte) {
	for i := range b {
		b[i] ^= mask[i%4]
	}
}

func closePayload(code uint16, reason string) []byte {
	if len(reason) > MaxControlPayload-2 {
		reason = reason[:MaxControlPayload-2]
	}
	p := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(p, code)
	copy(p[2:], reason)
	return p
}

// CloseCode extracts the status code from a close frame payload. An empty
// payload means no status was sent and reports 1005.
func CloseCode(payload []byte) uint16 {
	if len(payload) < 2 {
		return 1005
	}
	return binary.BigEndian.Uint16(payload)
}
