// Package stream implements the data stream protocol used between the
// assistant backend and its clients. Each frame is a single line of the
// response body, `<tag>:<json-payload>\n`:
//
//	0:"text"   - a fragment of the answer, in arrival order.
//	8:[...]    - one annotation carrying the source documents, after all text.
//	d:{...}    - terminal success frame with finish reason and usage.
//	3:{...}    - terminal failure frame.
//
// Exactly one terminal frame ends every response.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Source struct {
	URL      string         `json:"url"`
	Path     string         `json:"path"`
	Metadata SourceMetadata `json:"metadata"`
}

type SourceMetadata struct {
	Title  string `json:"title"`
	ID     string `json:"id"`
	Tenant string `json:"tenant,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type annotation struct {
	Type           string         `json:"type"`
	ToolInvocation toolInvocation `json:"toolInvocation"`
}

type toolInvocation struct {
	ToolName string   `json:"toolName"`
	Result   []Source `json:"result"`
}

type finishPayload struct {
	FinishReason string `json:"finishReason"`
	Usage        Usage  `json:"usage"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// NewWriter sets the streaming response headers and returns a Writer. The
// status code is committed as 200 by the first frame written, so callers must
// reject invalid requests before constructing a Writer.
func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)
	return &Writer{
		w:       w,
		flusher: flusher,
	}
}

// Writer writes frames to an HTTP response, flushing after each one so that
// fragments reach the client as they arrive. It is not safe for concurrent
// use - frame ordering is part of the protocol.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	started bool
}

// Started reports whether any frame has been written.
func (sw *Writer) Started() bool {
	return sw.started
}

func (sw *Writer) writeFrame(tag string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("stream: failed to marshal %s frame: %w", tag, err)
	}
	sw.started = true
	if _, err := fmt.Fprintf(sw.w, "%s:%s\n", tag, data); err != nil {
		return fmt.Errorf("stream: failed to write %s frame: %w", tag, err)
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// TextDelta writes one fragment of the answer text.
func (sw *Writer) TextDelta(text string) error {
	return sw.writeFrame("0", text)
}

// Sources writes the source annotation frame. Callers must write it after the
// final text delta and before Finish.
func (sw *Writer) Sources(sources []Source) error {
	return sw.writeFrame("8", []annotation{{
		Type: "tool-invocation",
		ToolInvocation: toolInvocation{
			ToolName: "search",
			Result:   sources,
		},
	}})
}

// Finish terminates the response successfully.
func (sw *Writer) Finish(reason string, usage Usage) error {
	return sw.writeFrame("d", finishPayload{FinishReason: reason, Usage: usage})
}

// Error terminates the response with a failure frame.
func (sw *Writer) Error(message string) error {
	return sw.writeFrame("3", errorPayload{Error: message})
}
