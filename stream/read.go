package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Frames receives parsed frames from Read. Nil callbacks are skipped.
type Frames struct {
	TextDelta func(text string) error
	Sources   func(sources []Source) error
	Finish    func(reason string, usage Usage) error
	Error     func(message string) error
}

// Read consumes a frame stream line by line, dispatching each frame to the
// matching callback until the stream ends or a callback returns an error.
// Unknown tags are skipped so that newer servers can add frame types.
func Read(r io.Reader, f Frames) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tag, payload, ok := strings.Cut(line, ":")
		if !ok {
			return fmt.Errorf("stream: invalid frame %q", line)
		}
		switch tag {
		case "0":
			var text string
			if err := json.Unmarshal([]byte(payload), &text); err != nil {
				return fmt.Errorf("stream: invalid text delta payload: %w", err)
			}
			if f.TextDelta != nil {
				if err := f.TextDelta(text); err != nil {
					return err
				}
			}
		case "8":
			var annotations []annotation
			if err := json.Unmarshal([]byte(payload), &annotations); err != nil {
				return fmt.Errorf("stream: invalid annotation payload: %w", err)
			}
			if f.Sources == nil {
				continue
			}
			for _, a := range annotations {
				if a.Type != "tool-invocation" || a.ToolInvocation.ToolName != "search" {
					continue
				}
				if err := f.Sources(a.ToolInvocation.Result); err != nil {
					return err
				}
			}
		case "d":
			var fp finishPayload
			if err := json.Unmarshal([]byte(payload), &fp); err != nil {
				return fmt.Errorf("stream: invalid finish payload: %w", err)
			}
			if f.Finish != nil {
				if err := f.Finish(fp.FinishReason, fp.Usage); err != nil {
					return err
				}
			}
		case "3":
			var ep errorPayload
			if err := json.Unmarshal([]byte(payload), &ep); err != nil {
				return fmt.Errorf("stream: invalid error payload: %w", err)
			}
			if f.Error != nil {
				if err := f.Error(ep.Error); err != nil {
					return err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream: failed to read frames: %w", err)
	}
	return nil
}
