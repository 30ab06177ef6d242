package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	contextBody    = "request_body"
	maxCaptureSize = 64 << 10
)

// CaptureBody keeps a copy of small JSON request bodies so the error handler
// can log them. Multipart uploads and oversized bodies are never buffered.
func CaptureBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.ContentLength <= 0 || req.ContentLength > maxCaptureSize ||
				!strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				return next(c)
			}

			body, err := io.ReadAll(io.LimitReader(req.Body, maxCaptureSize))
			if err != nil {
				return err
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			if json.Valid(body) {
				c.Set(contextBody, redact(body))
			}
			return next(c)
		}
	}
}

// CapturedBody returns the captured JSON body, if any.
func CapturedBody(c echo.Context) []byte {
	b, _ := c.Get(contextBody).([]byte)
	return b
}

// redact blanks password fields of a top-level JSON object.
func redact(body []byte) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body
	}
	changed := false
	for k := range obj {
		if strings.Contains(strings.ToLower(k), "password") {
			obj[k] = json.RawMessage(`"[redacted]"`)
			changed = true
		}
	}
	if !changed {
		return body
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}
