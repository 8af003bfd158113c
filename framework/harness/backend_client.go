package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/storybuddy/companion-contract-tests/framework"
)

const (
	defaultRequestTimeout = time.Second * 30
	maxLoggedBodyLength   = 500
	userAgent             = "companion-contract-tests"
)

// ClientOptions configures a BackendClient.
type ClientOptions struct {
	// Timeout applies to every request that does not set its own. Zero means 30 seconds.
	Timeout time.Duration

	// APIKey, if set, is sent as a bearer token.
	APIKey string

	// Observer, if set, is called after every request that got an HTTP response.
	Observer ResponseObserver
}

// ResponseObserver receives every completed response, for instance to record metrics.
type ResponseObserver func(Response)

// BackendClient sends requests to the backend under test. It never retries: every call is
// exactly one HTTP request, and the raw outcome is returned to the caller for judging.
type BackendClient struct {
	http     *resty.Client
	timeout  time.Duration
	observer ResponseObserver
}

// Request describes one call to the backend.
type Request struct {
	Method string

	// Path is relative to the backend base URL. It may contain {name} placeholders, which are
	// filled in from PathParams. The unexpanded form is used as the route label for metrics.
	Path       string
	PathParams map[string]string

	Query map[string]string

	// JSON, if non-nil, is marshaled as the request body.
	JSON interface{}

	// Form, if non-nil, is sent as multipart/form-data fields instead of a JSON body.
	Form map[string]string

	// Timeout overrides the client's default timeout for this request.
	Timeout time.Duration
}

func (r Request) String() string {
	path := r.Path
	for k, v := range r.PathParams {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	return r.Method + " " + path
}

// Response is the raw outcome of a Request.
type Response struct {
	Request    Request
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

func (r Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r Response) IsServerError() bool {
	return r.StatusCode >= 500
}

// DecodeJSON unmarshals the response body into target.
func (r Response) DecodeJSON(target interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%s returned an empty body (status %d)", r.Request, r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("malformed JSON from %s: %w; body was: %s", r.Request, err, r.BodySnippet(maxLoggedBodyLength))
	}
	return nil
}

// BodySnippet returns the body as a string, truncated if it is longer than max bytes. Bodies
// can contain megabytes of base64 audio, which should not end up in logs.
func (r Response) BodySnippet(max int) string {
	return truncate(string(r.Body), max)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes total)", s[:cut], len(s))
}

// NewBackendClient creates a client for the backend at baseURL.
func NewBackendClient(baseURL string, opts ClientOptions, logger framework.Logger) *BackendClient {
	if logger == nil {
		logger = framework.NullLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(restyLogger{logger}).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &BackendClient{
		http:     client,
		timeout:  timeout,
		observer: opts.Observer,
	}
}

// Do sends a single request and returns the response. An error is returned only if no HTTP
// response was received at all; HTTP error statuses are not errors at this level.
func (c *BackendClient) Do(ctx context.Context, req Request, logger framework.Logger) (Response, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := c.http.R().SetContext(ctx)
	if req.PathParams != nil {
		r.SetPathParams(req.PathParams)
	}
	if req.Query != nil {
		r.SetQueryParams(req.Query)
	}
	switch {
	case req.Form != nil:
		r.SetMultipartFormData(req.Form)
		logger.Printf(">> %s (multipart fields: %s)", req, formFieldSummary(req.Form))
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return Response{}, fmt.Errorf("could not marshal request body for %s: %w", req, err)
		}
		r.SetHeader("Content-Type", "application/json").SetBody(data)
		logger.Printf(">> %s %s", req, truncate(string(data), maxLoggedBodyLength))
	default:
		logger.Printf(">> %s", req)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()
	resp, err := r.Execute(method, req.Path)
	latency := time.Since(start)
	if err != nil {
		logger.Printf("<< %s failed after %s: %s", req, latency, err)
		return Response{Request: req, Latency: latency}, fmt.Errorf("%s failed: %w", req, err)
	}

	ret := Response{
		Request:    req,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Latency:    latency,
	}
	logger.Printf("<< %s: status %d in %s: %s", req, ret.StatusCode, latency, ret.BodySnippet(maxLoggedBodyLength))
	if c.observer != nil {
		c.observer(ret)
	}
	return ret, nil
}

// BurstResult is the outcome of one request within a burst.
type BurstResult struct {
	// Response is valid if Err is nil.
	Response Response
	Err      error

	// Issued is the 1-based position of the request in the burst.
	Issued int

	// Completed is the 1-based position in which this request finished relative to the
	// others in the same burst.
	Completed int
}

// StreamBurst sends all of the requests concurrently, to simulate a user doing several things
// in rapid succession. Results are delivered on the returned channel in the same order as the
// requests, however the backend happened to complete them; each one is delivered as soon as
// it and all of the requests before it have finished, so the caller can start judging early
// replies while later ones are still outstanding. The channel is closed after the last result.
// No request is cancelled because another one failed.
func (c *BackendClient) StreamBurst(ctx context.Context, requests []Request, logger framework.Logger) <-chan BurstResult {
	if logger == nil {
		logger = framework.NullLogger()
	}
	queue := newOrderedQueue[BurstResult](len(requests))
	var completed int32
	var g errgroup.Group
	for i, req := range requests {
		issued := i + 1
		g.Go(func() error {
			reqLogger := framework.LoggerWithPrefix(logger, fmt.Sprintf("[burst %d] ", issued))
			resp, err := c.Do(ctx, req, reqLogger)
			queue.put(issued, BurstResult{
				Response:  resp,
				Err:       err,
				Issued:    issued,
				Completed: int(atomic.AddInt32(&completed, 1)),
			})
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		queue.close()
	}()
	return queue.out
}

func formFieldSummary(form map[string]string) string {
	var parts []string
	for k, v := range form {
		parts = append(parts, fmt.Sprintf("%s=%s", k, truncate(v, 40)))
	}
	return strings.Join(parts, ", ")
}

type restyLogger struct {
	target framework.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.target.Printf("ERROR "+format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.target.Printf("WARN "+format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.target.Printf("DEBUG "+format, v...) }
