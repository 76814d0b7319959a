package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/kubecall/kubecall/internal/interceptor"
	"github.com/kubecall/kubecall/internal/logging"
	"github.com/kubecall/kubecall/internal/openapi"
	"github.com/kubecall/kubecall/internal/registry"
)

// Call identifies one invocation: a kind, an action verb, an optional
// version, and the request parameters. Path parameters are looked up by
// name; a "body" entry becomes the request body; anything else matching a
// declared query parameter goes into the query string.
type Call struct {
	Kind    string
	Action  string
	Version string
	Params  map[string]any
}

// APIVersions caches the top-level version-discovery responses fetched once
// at construction. Either field may be nil when discovery is disabled or the
// fetch failed.
type APIVersions struct {
	Core   map[string]any
	Groups map[string]any
}

// Client executes schema-derived actions against one API server. A built
// Client is safe for concurrent read-only use: extension never mutates it,
// it returns an independent new value.
type Client struct {
	host        string
	registry    *registry.Registry
	chain       *interceptor.Chain
	httpClient  *http.Client
	logger      *slog.Logger
	apiVersions APIVersions

	// kept for producing extended copies
	cfg Config
}

// New constructs a Client. Unless discovery is disabled this performs one or
// two network round trips (schema fetch and api-version discovery) and may
// block for their duration; a failed schema fetch falls back to the bundled
// document rather than failing construction.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		tlsCfg, err := cfg.Auth.TLSConfig()
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{}
		if tlsCfg != nil {
			httpClient.Transport = &http.Transport{TLSClientConfig: tlsCfg}
		}
	}

	discoveryEnabled := !cfg.DiscoveryDisabled
	doc, err := openapi.Load(ctx, httpClient, strings.TrimSuffix(cfg.Host, "/"), discoveryEnabled, logger)
	if err != nil {
		return nil, err
	}
	normalized := openapi.Normalizer{
		Groups:           cfg.APIGroups,
		DiscoveryEnabled: discoveryEnabled,
	}.Normalize(doc)

	c := &Client{
		host:       strings.TrimSuffix(cfg.Host, "/"),
		registry:   registry.Build(normalized, cfg.APIGroups),
		httpClient: httpClient,
		logger:     logger,
		cfg:        cfg,
	}
	c.chain = c.buildChain()

	if discoveryEnabled {
		c.apiVersions = c.fetchAPIVersions(ctx)
	}
	logger.Info("client ready",
		logging.Host(c.host),
		slog.Int("actions", c.registry.Len()))
	return c, nil
}

func (c *Client) buildChain() *interceptor.Chain {
	stages := []interceptor.Interceptor{interceptor.NewAuth(c.cfg.Auth)}
	stages = append(stages, c.cfg.Interceptors...)
	stages = append(stages, interceptor.NewTransport(c.httpClient), interceptor.StatusCheck{})

	opts := []interceptor.ChainOption{interceptor.WithLogger(c.logger)}
	if c.cfg.Metrics != nil {
		opts = append(opts, interceptor.WithMetrics(c.cfg.Metrics))
	}
	if c.cfg.Tracer != nil {
		opts = append(opts, interceptor.WithTracer(c.cfg.Tracer))
	}
	return interceptor.NewChain(stages, opts...)
}

// fetchAPIVersions performs the top-level version discovery. Failures are
// logged and leave the cache empty; they do not fail construction.
func (c *Client) fetchAPIVersions(ctx context.Context) APIVersions {
	var versions APIVersions
	for _, probe := range []struct {
		path string
		into *map[string]any
	}{
		{"/api/", &versions.Core},
		{"/apis/", &versions.Groups},
	} {
		body, err := c.execute(ctx, &interceptor.Request{
			Method: http.MethodGet,
			URL:    c.host + probe.path,
			Path:   probe.path,
			Header: http.Header{"Accept": []string{"application/json"}},
			Kind:   "APIVersions",
			Action: "get",
		})
		if err != nil {
			c.logger.Warn("api-version discovery failed",
				logging.Path(probe.path),
				logging.SanitizedErr(err))
			continue
		}
		if m, ok := body.(map[string]any); ok {
			*probe.into = m
		}
	}
	return versions
}

// APIVersions returns the cached version-discovery responses.
func (c *Client) APIVersions() APIVersions {
	return c.apiVersions
}

// ActionCount returns the number of registered actions.
func (c *Client) ActionCount() int {
	return c.registry.Len()
}

// Invoke resolves the call to exactly one action, performs the round trip
// through the interceptor chain and returns the decoded response body.
func (c *Client) Invoke(ctx context.Context, call Call) (any, error) {
	req, err := c.Request(call)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, req)
}

func (c *Client) execute(ctx context.Context, req *interceptor.Request) (any, error) {
	resp, err := c.chain.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return string(resp.Body), nil
	}
	return body, nil
}

// Request resolves the call and returns the outbound request description
// without performing it. Authentication headers are applied at execution
// time, not here.
func (c *Client) Request(call Call) (*interceptor.Request, error) {
	action, err := c.resolve(call)
	if err != nil {
		return nil, err
	}

	path, query, body, err := bindParams(action, call.Params)
	if err != nil {
		return nil, err
	}

	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	header := http.Header{"Accept": []string{"application/json"}}
	if body != nil {
		contentType := "application/json"
		if len(action.Consumes) > 0 {
			contentType = action.Consumes[0]
		}
		header.Set("Content-Type", contentType)
	}

	return &interceptor.Request{
		Method:  action.Method,
		URL:     u,
		Header:  header,
		Body:    body,
		Kind:    action.Kind,
		Action:  string(action.Verb),
		Version: action.Version,
		Path:    action.Path,
		Params:  call.Params,
	}, nil
}

// Explore returns the directory of callable kinds and actions, optionally
// restricted to one kind.
func (c *Client) Explore(kind string) []registry.DirectoryEntry {
	return c.registry.Directory(kind)
}

// ActionInfo is the schema metadata of one resolved action.
type ActionInfo struct {
	Kind       string
	Action     registry.Verb
	Group      string
	Version    string
	Method     string
	Path       string
	Summary    string
	Parameters []openapi.Parameter
	Responses  map[string]openapi.Response
}

// Info returns the declared parameter and response schemas for the action
// the call resolves to.
func (c *Client) Info(call Call) (*ActionInfo, error) {
	action, err := c.resolve(call)
	if err != nil {
		return nil, err
	}
	return &ActionInfo{
		Kind:       action.Kind,
		Action:     action.Verb,
		Group:      action.Group,
		Version:    action.Version,
		Method:     action.Method,
		Path:       action.Path,
		Summary:    action.Summary,
		Parameters: action.Parameters,
		Responses:  action.Responses,
	}, nil
}

func (c *Client) resolve(call Call) (*registry.Action, error) {
	verb, err := registry.ParseVerb(call.Action)
	if err != nil {
		return nil, err
	}
	return c.registry.Find(call.Kind, verb, call.Version)
}

// bindParams expands the path template and splits the remaining parameters
// into query string and body.
func bindParams(action *registry.Action, params map[string]any) (path string, query url.Values, body []byte, err error) {
	path = action.Path
	used := make(map[string]bool)
	for _, p := range action.Parameters {
		if p.In != "path" {
			continue
		}
		placeholder := "{" + p.Name + "}"
		if !strings.Contains(path, placeholder) {
			continue
		}
		value, ok := params[p.Name]
		if !ok {
			return "", nil, nil, fmt.Errorf("missing path parameter %q for %s %s", p.Name, action.Method, action.Path)
		}
		used[p.Name] = true
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(fmt.Sprintf("%v", value)))
	}
	if i := strings.IndexByte(path, '{'); i >= 0 {
		return "", nil, nil, fmt.Errorf("unbound path parameter in %s", path)
	}

	query = url.Values{}
	for _, p := range action.Parameters {
		if p.In != "query" {
			continue
		}
		if value, ok := params[p.Name]; ok {
			used[p.Name] = true
			query.Set(p.Name, fmt.Sprintf("%v", value))
		}
	}

	if raw, ok := params["body"]; ok {
		used["body"] = true
		body, err = json.Marshal(raw)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	for name := range params {
		if !used[name] {
			return "", nil, nil, fmt.Errorf("unknown parameter %q for %s %s", name, action.Method, action.Path)
		}
	}
	return path, query, body, nil
}
