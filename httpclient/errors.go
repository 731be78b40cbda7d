package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kbukum/wavechat/errors"
)

// ClassifyResponse converts a non-2xx response into a RequestFailed error.
// Returns nil for 2xx status codes.
func ClassifyResponse(resp *Response) *errors.AppError {
	if resp.IsSuccess() {
		return nil
	}
	return errors.RequestFailed(resp.StatusCode, ErrorDetail(resp.StatusCode, resp.Status, resp.Body))
}

// ErrorDetail extracts the message to show for a failed response:
//
//   - a JSON object with a non-empty string "detail" yields that string;
//   - any other non-null "detail" value yields its compact JSON;
//   - any other JSON value yields the compact body;
//   - an empty, null, or unparsable body yields the status text.
func ErrorDetail(statusCode int, statusLine string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var decoded any
	if len(trimmed) == 0 || json.Unmarshal(trimmed, &decoded) != nil || decoded == nil {
		return StatusText(statusCode, statusLine)
	}

	if obj, ok := decoded.(map[string]any); ok {
		switch d := obj["detail"].(type) {
		case nil:
		case string:
			if d != "" {
				return d
			}
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// StatusText returns the reason phrase of a status line ("Not Found" from
// "404 Not Found"), falling back to the standard text for the code.
func StatusText(statusCode int, statusLine string) string {
	if reason := strings.TrimSpace(strings.TrimPrefix(statusLine, strconv.Itoa(statusCode))); reason != "" {
		return reason
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// DecodeJSON parses a successful response body into v. An undecodable body
// is reported as RequestFailed so callers never see a partial result.
func DecodeJSON(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return errors.RequestFailed(resp.StatusCode, "malformed response body").WithCause(err)
	}
	return nil
}
