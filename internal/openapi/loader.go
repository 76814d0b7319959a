package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kubecall/kubecall/internal/logging"
)

// SchemaPath is the well-known endpoint serving the cluster's OpenAPI v2
// document.
const SchemaPath = "/openapi/v2"

//go:embed fallback_swagger.json
var fallbackSchema []byte

// FetchError reports a failure to retrieve or decode the live schema
// document. It is recovered locally by falling back to the bundled document
// and is surfaced only through logs.
type FetchError struct {
	Host string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch schema from %s: %v", logging.SanitizeHost(e.Host), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Load retrieves and parses the cluster's schema document.
//
// When discovery is enabled it performs one GET against <host>/openapi/v2;
// any fetch or parse failure falls back to the bundled document rather than
// failing the caller. When discovery is disabled the fetch is skipped
// entirely and the bundled document is used directly.
func Load(ctx context.Context, httpClient *http.Client, host string, discoveryEnabled bool, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !discoveryEnabled {
		return parseFallback()
	}

	doc, err := fetch(ctx, httpClient, host)
	if err != nil {
		logger.Warn("schema fetch failed, using bundled document",
			logging.Host(host),
			logging.SanitizedErr(&FetchError{Host: host, Err: err}))
		return parseFallback()
	}
	return doc, nil
}

func fetch(ctx context.Context, httpClient *http.Client, host string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+SchemaPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}

func parseFallback() (*Document, error) {
	doc, err := Parse(fallbackSchema)
	if err != nil {
		return nil, fmt.Errorf("bundled schema document is invalid: %w", err)
	}
	return doc, nil
}
