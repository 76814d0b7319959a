package interceptor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Transport is the terminal stage: it performs the single network round trip
// of an invocation and fills the exchange's response.
type Transport struct {
	client *http.Client
}

// NewTransport builds the transport stage over the given HTTP client.
func NewTransport(client *http.Client) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &Transport{client: client}
}

func (t *Transport) Process(ctx context.Context, exch *Exchange) error {
	if exch.Response != nil {
		return nil
	}

	var body io.Reader
	if len(exch.Request.Body) > 0 {
		body = bytes.NewReader(exch.Request.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, exch.Request.Method, exch.Request.URL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range exch.Request.Header {
		httpReq.Header[k] = vs
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	exch.Response = &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}
	return nil
}
