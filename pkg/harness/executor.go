package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/getspecd/specd/pkg/spec"
)

// Exchange captures one real request/response pair produced for a
// scenario.
type Exchange struct {
	Method       string
	URL          string
	RequestBody  []byte
	Status       int
	ResponseBody []byte
	Header       http.Header
	Duration     time.Duration
}

// Executor produces the real exchange for a scenario. Implementations own
// the only blocking I/O in a run.
type Executor interface {
	Do(ctx context.Context, op *spec.Operation, sc *Scenario) (*Exchange, error)
}

// HTTPExecutor drives scenarios over HTTP. When Handler is set the request
// is served in-process through httptest; otherwise it is sent to BaseURL
// with Client.
type HTTPExecutor struct {
	BaseURL string
	Client  *http.Client
	Handler http.Handler
}

// Do builds the request from the operation's path template and the
// scenario's concrete values, performs it, and captures the exchange.
func (e *HTTPExecutor) Do(ctx context.Context, op *spec.Operation, sc *Scenario) (*Exchange, error) {
	path, err := expandPath(op.Path, sc.PathParams)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	var requestBody []byte
	contentType := ""
	switch {
	case len(sc.FormParams) > 0:
		form := url.Values{}
		for k, v := range sc.FormParams {
			form.Set(k, v)
		}
		requestBody = []byte(form.Encode())
		body = bytes.NewReader(requestBody)
		contentType = "application/x-www-form-urlencoded"
	case sc.Body != nil:
		requestBody, err = json.Marshal(sc.Body)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: encode body: %w", sc.Name, err)
		}
		body = bytes.NewReader(requestBody)
		contentType = "application/json"
	}

	target := e.BaseURL + path
	if e.Handler != nil {
		target = path
	}
	req, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: build request: %w", sc.Name, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range sc.Headers {
		req.Header.Set(k, v)
	}
	if len(sc.QueryParams) > 0 {
		q := req.URL.Query()
		for k, v := range sc.QueryParams {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	start := time.Now()
	var status int
	var respBody []byte
	var header http.Header

	if e.Handler != nil {
		rec := httptest.NewRecorder()
		e.Handler.ServeHTTP(rec, req)
		status = rec.Code
		respBody = rec.Body.Bytes()
		header = rec.Header()
	} else {
		client := e.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		defer resp.Body.Close()
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: read response: %w", sc.Name, err)
		}
		status = resp.StatusCode
		header = resp.Header
	}

	return &Exchange{
		Method:       op.Method,
		URL:          req.URL.String(),
		RequestBody:  requestBody,
		Status:       status,
		ResponseBody: respBody,
		Header:       header,
		Duration:     time.Since(start),
	}, nil
}

// expandPath substitutes {name} segments of a path template with concrete
// values. Every template parameter must have a value.
func expandPath(template string, params map[string]string) (string, error) {
	out := template
	for strings.Contains(out, "{") {
		start := strings.Index(out, "{")
		end := strings.Index(out[start:], "}")
		if end < 0 {
			return "", fmt.Errorf("malformed path template %q", template)
		}
		name := out[start+1 : start+end]
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("path template %q: no value for parameter %q", template, name)
		}
		out = out[:start] + url.PathEscape(value) + out[start+end+1:]
	}
	return out, nil
}
