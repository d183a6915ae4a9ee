package mcp

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// SSE payloads can carry large tool results; match the scanner buffer to
// the biggest frame the CRM endpoint is known to emit.
const sseScannerBuffer = 2 * 1024 * 1024

// StreamDecoder demultiplexes a text/event-stream body into discrete
// JSON-RPC messages. It recognizes "data:" lines, accumulates them until
// the blank-line frame terminator, and parses the accumulated payload as
// one message. Malformed payloads are dropped rather than surfaced: a
// single bad frame must never poison the stream. The decoder is single
// use; the underlying stream cannot be rewound.
type StreamDecoder struct {
	scanner *bufio.Scanner
	data    []string
	done    bool
}

// NewStreamDecoder wraps an event-stream body.
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), sseScannerBuffer)
	return &StreamDecoder{scanner: scanner}
}

// Next returns the next decoded message. ok is false once the stream is
// exhausted, including after a trailing unterminated frame is flushed.
func (d *StreamDecoder) Next() (msg Message, ok bool) {
	if d.done {
		return Message{}, false
	}
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if msg, ok := d.flush(); ok {
				return msg, true
			}
			continue
		}
		if rest, found := strings.CutPrefix(line, "data:"); found {
			d.data = append(d.data, strings.TrimPrefix(rest, " "))
		}
		// event:, id:, retry: and comment lines carry nothing we need.
	}
	d.done = true
	return d.flush()
}

// flush parses the accumulated frame, if any. Multi-line data fields are
// joined with newlines per the SSE spec.
func (d *StreamDecoder) flush() (Message, bool) {
	if len(d.data) == 0 {
		return Message{}, false
	}
	payload := strings.Join(d.data, "\n")
	d.data = d.data[:0]
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, false
	}
	return msg, true
}

// DecodeStream drains an event-stream body into the ordered list of
// messages it carried.
func DecodeStream(r io.Reader) []Message {
	decoder := NewStreamDecoder(r)
	var messages []Message
	for {
		msg, ok := decoder.Next()
		if !ok {
			return messages
		}
		messages = append(messages, msg)
	}
}
