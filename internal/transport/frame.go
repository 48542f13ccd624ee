// Package transport implements the private, point-to-point frame
// protocol the query-time core runs RPCs over: a fixed 8-byte
// little-endian body-size header followed by a serialized body, one
// request/response pair per connection. Grounded on
// original_source/core/src/distributed/sonic/mod.rs, translated from
// tokio's async IO to net.Conn + context.Context deadlines.
package transport

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"distributed-search/internal/errkind"
)

const headerSize = 8

// DefaultMaxBodySize bounds a single frame body. Callers enforce this
// client-side before any write (spec.md §4.1 "Body size").
const DefaultMaxBodySize = 64 << 20 // 64 MiB

// writeFrame writes a length-prefixed gob-encoded body to w.
func writeFrame(w io.Writer, body any, maxBodySize uint64) error {
	buf := new(countingBuffer)
	enc := gob.NewEncoder(buf)
	if err := enc.Encode(body); err != nil {
		return errkind.New(errkind.BadRequest, fmt.Sprintf("encode frame: %v", err))
	}

	bodyLen := uint64(buf.Len())
	if bodyLen > maxBodySize {
		return errkind.New(errkind.BodyTooLarge,
			fmt.Sprintf("body_size=%d max_size=%d", bodyLen, maxBodySize))
	}

	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:], bodyLen)

	if _, err := w.Write(header[:]); err != nil {
		return errkind.New(errkind.TransportUnreachable, err.Error())
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errkind.New(errkind.TransportUnreachable, err.Error())
	}
	if f, ok := w.(*bufio.Writer); ok {
		if err := f.Flush(); err != nil {
			return errkind.New(errkind.TransportUnreachable, err.Error())
		}
	}
	return nil
}

// readFrame reads a length-prefixed gob-encoded body from r into out.
func readFrame(r io.Reader, out any, maxBodySize uint64) error {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return errkind.New(errkind.TransportUnreachable, err.Error())
	}
	bodyLen := binary.LittleEndian.Uint64(header[:])
	if bodyLen > maxBodySize {
		return errkind.New(errkind.BodyTooLarge,
			fmt.Sprintf("body_size=%d max_size=%d", bodyLen, maxBodySize))
	}

	lr := io.LimitReader(r, int64(bodyLen))
	dec := gob.NewDecoder(lr)
	if err := dec.Decode(out); err != nil {
		return errkind.New(errkind.BadRequest, fmt.Sprintf("decode frame: %v", err))
	}
	return nil
}

// countingBuffer is a minimal growable byte buffer usable as a gob sink
// without importing bytes.Buffer's broader API surface.
type countingBuffer struct {
	data []byte
}

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *countingBuffer) Len() int       { return len(b.data) }
func (b *countingBuffer) Bytes() []byte  { return b.data }
