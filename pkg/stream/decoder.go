package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

// DefaultMaxLineBytes bounds a single frame line when no limit is configured
const DefaultMaxLineBytes = 1 << 20

const readChunkSize = 32 << 10

// Decoder splits a byte stream into frames. A line split across chunks is
// held in a pending buffer until its newline (or EOF) arrives.
type Decoder struct {
	pending  []byte
	overflow bool
	maxLine  int

	malformed int
	overlong  int
}

// NewDecoder returns a decoder that drops lines longer than maxLine bytes.
// maxLine <= 0 uses DefaultMaxLineBytes.
func NewDecoder(maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Decoder{maxLine: maxLine}
}

// Feed consumes one chunk and returns the frames completed by it
func (d *Decoder) Feed(chunk []byte) []Frame {
	var frames []Frame
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			d.hold(chunk)
			return frames
		}
		d.hold(chunk[:i])
		frames = d.emit(frames)
		chunk = chunk[i+1:]
	}
}

// Flush decodes a final unterminated line at end of stream
func (d *Decoder) Flush() []Frame {
	return d.emit(nil)
}

// Malformed is the number of non-empty lines that failed to decode
func (d *Decoder) Malformed() int { return d.malformed }

// Overlong is the number of lines dropped for exceeding the line limit
func (d *Decoder) Overlong() int { return d.overlong }

func (d *Decoder) hold(b []byte) {
	if d.overflow || len(b) == 0 {
		return
	}
	if len(d.pending)+len(b) > d.maxLine {
		d.overflow = true
		d.pending = d.pending[:0]
		d.overlong++
		return
	}
	d.pending = append(d.pending, b...)
}

func (d *Decoder) emit(frames []Frame) []Frame {
	line := bytes.TrimSpace(d.pending)
	overflow := d.overflow
	defer func() {
		d.pending = d.pending[:0]
		d.overflow = false
	}()

	if overflow || len(line) == 0 {
		return frames
	}

	f, err := DecodeFrame(line)
	if err != nil {
		d.malformed++
		logger.WithComponent("stream").Debug("skipping malformed line", "error", err, "bytes", len(line))
		return frames
	}
	return append(frames, f)
}

// ReadFrames pumps r through dec, calling fn for each frame in arrival order.
// fn returning false stops the loop early (a terminal frame was handled).
// A clean EOF returns nil; a read failure is returned wrapped.
func ReadFrames(ctx context.Context, r io.Reader, dec *Decoder, fn func(Frame) bool) error {
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			for _, f := range dec.Feed(buf[:n]) {
				if !fn(f) {
					return nil
				}
			}
		}

		if errors.Is(err, io.EOF) {
			for _, f := range dec.Flush() {
				if !fn(f) {
					return nil
				}
			}
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
}
