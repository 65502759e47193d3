package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const streamTerminator = "[DONE]"

// CompletionClient posts conversation history to the completion API and
// returns the streamed reply as a delta iterator.
type CompletionClient struct {
	url    string
	apiKey string
	http   *http.Client
	log    *zap.Logger
}

func NewCompletionClient(url, apiKey string, log *zap.Logger) *CompletionClient {
	return &CompletionClient{
		url:    url,
		apiKey: apiKey,
		// No per-request timeout: the reply streams for as long as the
		// model keeps producing tokens. Cancellation comes from ctx.
		http: &http.Client{},
		log:  log,
	}
}

// Stream opens a completion request. The caller must Close the returned
// reader. history must not include the in-progress assistant message.
func (c *CompletionClient) Stream(ctx context.Context, lang string, history []PromptMessage) (*DeltaReader, error) {
	body, err := json.Marshal(completionRequest{
		Stream:   true,
		Lang:     lang,
		Type:     1,
		Messages: history,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// The completion service expects the raw key, not a Bearer scheme.
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("completion request failed", zap.String("url", c.url), zap.Error(err))
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.log.Error("completion non-success status",
			zap.String("url", c.url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(respBody))),
		)
		return nil, fmt.Errorf("completion request failed with status %d", resp.StatusCode)
	}

	return NewDeltaReader(resp.Body, c.log), nil
}

// DeltaReader decodes a streamed completion body into text deltas. The
// body is newline-delimited JSON, each line optionally prefixed with
// "data:", terminated by a [DONE] sentinel. A line that fails to parse is
// logged and skipped; it never aborts the rest of the stream.
type DeltaReader struct {
	body      io.ReadCloser
	log       *zap.Logger
	buf       []byte
	remainder string
	pending   []string
	done      bool
}

func NewDeltaReader(body io.ReadCloser, log *zap.Logger) *DeltaReader {
	return &DeltaReader{
		body: body,
		log:  log,
		buf:  make([]byte, 4096),
	}
}

// Next returns the next non-empty text delta, or io.EOF once the sentinel
// or the end of the body is reached.
func (r *DeltaReader) Next() (string, error) {
	for {
		if len(r.pending) > 0 {
			delta := r.pending[0]
			r.pending = r.pending[1:]
			return delta, nil
		}
		if r.done {
			return "", io.EOF
		}

		n, readErr := r.body.Read(r.buf)
		if n > 0 {
			chunk := r.remainder + string(r.buf[:n])
			r.remainder = ""
			lines := splitLines(chunk)
			for i, line := range lines {
				// Keep a trailing partial line until the next read completes it.
				if i == len(lines)-1 && readErr == nil {
					r.remainder = line
					continue
				}
				r.consumeLine(line)
				if r.done {
					break
				}
			}
		}

		if readErr == io.EOF {
			if !r.done && strings.TrimSpace(r.remainder) != "" {
				r.consumeLine(r.remainder)
			}
			r.remainder = ""
			r.done = true
			continue
		}
		if readErr != nil {
			return "", readErr
		}
	}
}

func (r *DeltaReader) consumeLine(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "data:") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
	}
	if trimmed == "" {
		return
	}
	if trimmed == streamTerminator {
		r.done = true
		return
	}

	var event struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(trimmed), &event); err != nil {
		r.log.Warn("skipping unparseable stream line", zap.String("line", trimmed), zap.Error(err))
		return
	}
	if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
		return
	}
	r.pending = append(r.pending, event.Choices[0].Delta.Content)
}

func (r *DeltaReader) Close() error {
	return r.body.Close()
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
