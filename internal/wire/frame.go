// Package wire implements the elevator system's length-prefixed ASCII wire
// protocol: every message is a 2-byte big-endian unsigned length L followed
// by exactly L bytes of ASCII text, with no terminator.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameLen is the largest payload a single frame may carry, bounded by
// the 2-byte length prefix.
const MaxFrameLen = 65535

// ReadFrame reads one length-prefixed frame from r and returns its payload.
// It returns io.EOF if the connection closed before any bytes of the next
// frame arrived, io.ErrUnexpectedEOF for a short read inside the 2-byte
// length prefix, and a wrapped error for a short read in the body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])

	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("wire: short frame body: %w", err)
		}
	}
	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameLen {
		return fmt.Errorf("wire: payload length %d exceeds max frame length %d", len(payload), MaxFrameLen)
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// WriteText is a convenience wrapper that frames a text message.
func WriteText(w io.Writer, text string) error {
	return WriteFrame(w, []byte(text))
}
