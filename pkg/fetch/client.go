// Package fetch resolves JSON resources through a primary route, an optional
// fallback route (typically CORS proxies) and an optional TTL cache.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/briangreenhill/fpldash/cache"
)

var tracer = otel.Tracer("fpldash/fetch")

// Route identifies which path produced a payload.
type Route string

const (
	RouteNone     Route = "none"
	RoutePrimary  Route = "primary"
	RouteFallback Route = "fallback"
)

// Outcome of a single network attempt.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeHTTPError    Outcome = "httpError"
	OutcomeNetworkError Outcome = "networkError"
	OutcomeParseError   Outcome = "parseError"
	OutcomeMalformed    Outcome = "malformed"
)

// Attempt describes one request made during a Resolve call.
type Attempt struct {
	ResolveID  string
	TargetURL  string
	Route      Route
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Source tells where a resolved payload came from.
type Source string

const (
	SourceCache   Source = "hit"
	SourceNetwork Source = "miss"
	SourceStale   Source = "stale"
)

// Result is a resolved payload with its provenance.
type Result struct {
	Resource string
	Data     json.RawMessage
	Source   Source
	Route    Route
}

// Client resolves resources. It holds no per-resource state and is safe for
// concurrent use; concurrent calls for one key are not de-duplicated.
type Client struct {
	http        *resty.Client
	baseURL     *url.URL
	cache       cache.Cache
	log         zerolog.Logger
	now         func() time.Time
	observe     func(Attempt)
	concurrency int
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(h) }
}

// WithBaseURL sets the upstream base that relative resources resolve against.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			if !strings.HasSuffix(u.Path, "/") {
				u.Path += "/"
			}
			c.baseURL = u
		}
	}
}

func WithCache(store cache.Cache) Option {
	return func(c *Client) { c.cache = store }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithObserver registers a hook called after every network attempt.
func WithObserver(fn func(Attempt)) Option {
	return func(c *Client) { c.observe = fn }
}

// WithConcurrency bounds ResolveAll fan-out. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:        resty.New(),
		log:         zerolog.Nop(),
		now:         time.Now,
		concurrency: 8,
	}
	for _, o := range opts {
		o(c)
	}
	c.http.SetLogger(restyLogger{c.log})
	return c
}

// BaseURL returns the configured upstream base, or "" if none.
func (c *Client) BaseURL() string {
	if c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// Target resolves resource against the base URL.
func (c *Client) Target(resource string) string {
	if c.baseURL == nil {
		return resource
	}
	ref, err := url.Parse(resource)
	if err != nil || ref.IsAbs() {
		return resource
	}
	return c.baseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(ref.Path, "/"), RawQuery: ref.RawQuery}).String()
}

// Resolve returns the JSON payload for resource according to policy.
func (c *Client) Resolve(ctx context.Context, resource string, policy Policy) (json.RawMessage, error) {
	res, err := c.ResolveDetailed(ctx, resource, policy)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ResolveDetailed is Resolve with provenance.
func (c *Client) ResolveDetailed(ctx context.Context, resource string, policy Policy) (Result, error) {
	ctx, span := tracer.Start(ctx, "fetch.resolve", trace.WithAttributes(
		attribute.String("fetch.resource", resource),
	))
	defer span.End()

	id := uuid.NewString()
	log := c.log.With().Str("resolve_id", id).Str("resource", resource).Logger()
	res := Result{Resource: resource, Route: RouteNone}

	var (
		key   string
		stale *cache.Entry
	)
	if policy.Cache != nil && c.cache != nil {
		key = policy.Cache.key(resource)
		span.SetAttributes(attribute.String("fetch.cache_key", key))

		entry, fresh := c.cache.Read(ctx, key, c.now())
		if entry != nil {
			// Entries may have been written under a looser policy.
			if verr := validate(resource, entry.Data, policy); verr != nil {
				log.Debug().Err(verr).Str("key", key).Msg("cached entry rejected")
				entry, fresh = nil, false
			}
		}
		if fresh {
			log.Debug().Str("key", key).Msg("cache hit")
			span.SetAttributes(attribute.String("fetch.source", string(SourceCache)))
			res.Data, res.Source = entry.Data, SourceCache
			return res, nil
		}
		if entry != nil && policy.Cache.Mode == NetworkFirstStale {
			stale = entry
		}
	}

	target := c.Target(resource)
	primary := policy.Primary
	if primary == nil {
		primary = Direct()
	}

	data, route, err := c.transports(ctx, id, resource, target, primary, policy)
	if err != nil {
		if stale != nil && errors.Is(err, ErrDataUnavailable) {
			log.Warn().Err(err).Str("key", key).Msg("serving stale cache entry")
			span.SetAttributes(attribute.String("fetch.source", string(SourceStale)))
			res.Data, res.Source = stale.Data, SourceStale
			return res, nil
		}
		log.Warn().Err(err).Msg("resolve failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return res, err
	}

	if key != "" {
		if werr := c.cache.Write(ctx, key, cache.NewEntry(data, c.now(), policy.Cache.TTL)); werr != nil {
			log.Warn().Err(werr).Str("key", key).Msg("cache write failed")
		}
	}

	span.SetAttributes(
		attribute.String("fetch.source", string(SourceNetwork)),
		attribute.String("fetch.route", string(route)),
	)
	res.Data, res.Source, res.Route = data, SourceNetwork, route
	return res, nil
}

// transports runs the primary request and at most one fallback request.
func (c *Client) transports(ctx context.Context, id, resource, target string, primary Transform, policy Policy) (json.RawMessage, Route, error) {
	primaryURL, ok := primary(target)
	if !ok {
		return nil, RouteNone, &DataUnavailableError{Resource: resource, Primary: errors.New("primary route disabled")}
	}

	data, perr := c.attempt(ctx, id, resource, primaryURL, RoutePrimary, policy)
	if perr == nil {
		return data, RoutePrimary, nil
	}
	if errors.Is(perr, ErrMalformedResponse) {
		return nil, RoutePrimary, perr
	}

	if policy.Fallback == nil {
		return nil, RoutePrimary, &DataUnavailableError{Resource: resource, Primary: perr}
	}
	fallbackURL, ok := policy.Fallback(target)
	if !ok {
		return nil, RoutePrimary, &DataUnavailableError{Resource: resource, Primary: perr}
	}

	data, ferr := c.attempt(ctx, id, resource, fallbackURL, RouteFallback, policy)
	if ferr == nil {
		return data, RouteFallback, nil
	}
	if errors.Is(ferr, ErrMalformedResponse) {
		return nil, RouteFallback, ferr
	}
	return nil, RouteFallback, &DataUnavailableError{Resource: resource, Primary: perr, Fallback: ferr}
}

func (c *Client) attempt(ctx context.Context, id, resource, u string, route Route, policy Policy) (json.RawMessage, error) {
	start := time.Now()
	a := Attempt{ResolveID: id, TargetURL: u, Route: route}
	defer func() {
		a.Duration = time.Since(start)
		c.log.Debug().
			Str("resolve_id", id).
			Str("url", u).
			Str("route", string(route)).
			Str("outcome", string(a.Outcome)).
			Int("status", a.StatusCode).
			Dur("duration", a.Duration).
			Msg("fetch attempt")
		if c.observe != nil {
			c.observe(a)
		}
	}()

	data, status, err := c.do(ctx, resource, u, policy)
	a.StatusCode, a.Err = status, err

	var (
		nerr *NetworkError
		herr *HTTPError
		perr *ParseError
	)
	switch {
	case err == nil:
		a.Outcome = OutcomeSuccess
	case errors.As(err, &nerr):
		a.Outcome = OutcomeNetworkError
	case errors.As(err, &herr):
		a.Outcome = OutcomeHTTPError
	case errors.As(err, &perr):
		a.Outcome = OutcomeParseError
	default:
		a.Outcome = OutcomeMalformed
	}
	return data, err
}

func (c *Client) do(ctx context.Context, resource, u string, policy Policy) (json.RawMessage, int, error) {
	method := policy.Request.Method
	if method == "" {
		method = http.MethodGet
	}

	req := c.http.R().SetContext(ctx).SetHeader("Accept", "application/json")
	for k, v := range policy.Request.Headers {
		req.SetHeader(k, v)
	}
	if policy.Request.Body != nil {
		req.SetBody(policy.Request.Body)
	}

	resp, err := req.Execute(method, u)
	if err != nil {
		return nil, 0, &NetworkError{Method: method, URL: u, Err: err}
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), &HTTPError{Method: method, URL: u, StatusCode: resp.StatusCode(), Body: snippet(body)}
	}
	if !json.Valid(body) {
		return nil, resp.StatusCode(), &ParseError{Method: method, URL: u, Snippet: snippet(body)}
	}
	if err := validate(resource, body, policy); err != nil {
		return nil, resp.StatusCode(), err
	}
	return json.RawMessage(body), resp.StatusCode(), nil
}

func validate(resource string, body []byte, policy Policy) error {
	if err := checkShape(resource, body, policy.Expect); err != nil {
		return err
	}
	if policy.Validate != nil {
		if err := policy.Validate(body); err != nil {
			return &MalformedResponseError{Resource: resource, Err: err}
		}
	}
	return nil
}

func checkShape(resource string, body []byte, expect []string) error {
	if len(expect) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return &MalformedResponseError{Resource: resource, Err: errors.New("expected a JSON object")}
	}
	var missing []string
	for _, k := range expect {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MalformedResponseError{Resource: resource, Missing: missing}
	}
	return nil
}

func snippet(b []byte) string {
	const max = 120
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

type restyLogger struct{ l zerolog.Logger }

func (r restyLogger) Errorf(format string, v ...interface{}) { r.l.Error().Msgf(format, v...) }
func (r restyLogger) Warnf(format string, v ...interface{})  { r.l.Warn().Msgf(format, v...) }
func (r restyLogger) Debugf(format string, v ...interface{}) { r.l.Debug().Msgf(format, v...) }
