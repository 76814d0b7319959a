package interceptor

import (
	"context"
	"encoding/json"
	"fmt"
)

// RequestError surfaces a transport response with status >= 400. It carries
// the status code, the decoded body and a description of the originating
// request. Such failures are never retried.
type RequestError struct {
	StatusCode int
	Body       any
	Method     string
	Path       string
	Params     map[string]any
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d", e.Method, e.Path, e.StatusCode)
}

// StatusCheck is the response-handling stage: any response with status >= 400
// fails the exchange with a *RequestError; everything below passes through
// unchanged for subsequent decoding.
type StatusCheck struct{}

func (StatusCheck) Process(_ context.Context, exch *Exchange) error {
	resp := exch.Response
	if resp == nil || resp.StatusCode < 400 {
		return nil
	}

	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		body = string(resp.Body)
	}
	return &RequestError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Method:     exch.Request.Method,
		Path:       exch.Request.Path,
		Params:     exch.Request.Params,
	}
}
