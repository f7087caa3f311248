// Package resource is a client for the JSON todo API.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/time/rate"

	"todosearch/internal/config"
	"todosearch/internal/domain"
	"todosearch/internal/memo"
)

var logger = loggo.GetLogger("todosearch.resource")

// Options configures a Client.
type Options struct {
	BaseURL string

	// Timeout bounds each request, including time spent waiting for the
	// rate limiter.
	Timeout time.Duration

	// RatePerSec limits outgoing requests; zero means unlimited.
	RatePerSec float64
	Burst      int

	// CacheSize bounds the memoized title searches; zero disables it.
	CacheSize int

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// OptionsFromConfig maps the [api] and [cache] config sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.Timeout(),
		RatePerSec: cfg.API.RatePerSec,
		Burst:      cfg.API.Burst,
		CacheSize:  cfg.Cache.Size,
	}
}

// Client talks to the todo API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter

	cache        *memo.Cache[[]domain.Todo]
	todosByTitle func(context.Context, string) ([]domain.Todo, error)
}

// New returns a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid base url %q", opts.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.NotValidf("base url scheme %q", base.Scheme)
	}
	if opts.Timeout <= 0 {
		return nil, errors.NotValidf("timeout %v", opts.Timeout)
	}

	c := &Client{
		base:    base,
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	c.cache, err = memo.New[[]domain.Todo](opts.CacheSize)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c.todosByTitle = memo.Func(c.cache, c.fetchTodosByTitle)
	return c, nil
}

// TodosByTitle returns the todos whose title contains title. The result
// is never nil.
func (c *Client) TodosByTitle(ctx context.Context, title string) ([]domain.Todo, error) {
	return c.todosByTitle(ctx, title)
}

func (c *Client) fetchTodosByTitle(ctx context.Context, title string) ([]domain.Todo, error) {
	todos := []domain.Todo{}
	if err := c.getJSON(ctx, "todos", url.Values{"title_like": {title}}, &todos); err != nil {
		return nil, errors.Annotatef(err, "search todos %q", title)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

// Profile returns the user with the given id.
func (c *Client) Profile(ctx context.Context, userID int) (domain.Profile, error) {
	var p domain.Profile
	if err := c.getJSON(ctx, "users/"+strconv.Itoa(userID), nil, &p); err != nil {
		return domain.Profile{}, errors.Annotatef(err, "profile %d", userID)
	}
	return p, nil
}

// NotificationCount returns the number of open todos of the user.
func (c *Client) NotificationCount(ctx context.Context, userID int) (int, error) {
	var open []domain.Todo
	q := url.Values{
		"userId":    {strconv.Itoa(userID)},
		"completed": {"false"},
	}
	if err := c.getJSON(ctx, "todos", q, &open); err != nil {
		return 0, errors.Annotatef(err, "open todos of user %d", userID)
	}
	return len(open), nil
}

// PurgeCache drops memoized search results.
func (c *Client) PurgeCache() {
	c.cache.Purge()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Annotate(err, "rate limit")
		}
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return errors.Trace(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer res.Body.Close()
	logger.Debugf("GET %s: %s in %v", u, res.Status, time.Since(start))

	switch {
	case res.StatusCode == http.StatusNotFound:
		return errors.NotFoundf("%s", u.Path)
	case res.StatusCode < 200 || res.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{Code: res.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Annotate(err, "decode response")
	}
	return nil
}

// StatusError is returned for unexpected non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
