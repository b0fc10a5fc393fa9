// Package stream implements the outbound incremental-message wire protocol:
// an SSE stream of JSON events in the AI SDK UI message stream (v1) shape.
// One assistant reply is bracketed by start/finish events and carries one or
// more text parts, each a text-start / text-delta* / text-end sequence.
// Mid-stream failures become a terminal error event inside the same stream;
// the already-sent 200 status never changes.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProtocolHeader marks responses carrying the UI message stream protocol.
const (
	ProtocolHeader  = "x-vercel-ai-ui-message-stream"
	ProtocolVersion = "v1"
)

// event is one protocol frame. Only the fields relevant to the event type
// are populated.
type event struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId,omitempty"`
	ID        string `json:"id,omitempty"`
	Delta     string `json:"delta,omitempty"`
	ErrorText string `json:"errorText,omitempty"`
}

// Writer emits protocol frames onto an http.ResponseWriter, flushing after
// every frame so deltas reach the client without buffering.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter wraps a response writer. It fails if the writer cannot flush,
// since an unflushable stream would buffer the whole reply.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteHeaders sends the SSE headers and the 200 status. Call once, before
// any frame.
func (sw *Writer) WriteHeaders() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set(ProtocolHeader, ProtocolVersion)
	sw.w.WriteHeader(http.StatusOK)
	sw.flusher.Flush()
}

// Start opens an assistant message.
func (sw *Writer) Start(messageID string) error {
	return sw.writeEvent(event{Type: "start", MessageID: messageID})
}

// TextStart opens a text part.
func (sw *Writer) TextStart(id string) error {
	return sw.writeEvent(event{Type: "text-start", ID: id})
}

// TextDelta emits one content delta for an open text part.
func (sw *Writer) TextDelta(id, delta string) error {
	return sw.writeEvent(event{Type: "text-delta", ID: id, Delta: delta})
}

// TextEnd closes a text part.
func (sw *Writer) TextEnd(id string) error {
	return sw.writeEvent(event{Type: "text-end", ID: id})
}

// Finish closes the assistant message.
func (sw *Writer) Finish() error {
	return sw.writeEvent(event{Type: "finish"})
}

// Error emits a terminal in-stream error event.
func (sw *Writer) Error(message string) error {
	return sw.writeEvent(event{Type: "error", ErrorText: message})
}

// Done emits the stream terminator. Call last, on every path.
func (sw *Writer) Done() error {
	if _, err := fmt.Fprint(sw.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

func (sw *Writer) writeEvent(e event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}
