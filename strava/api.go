package strava

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context/ctxhttp"
)

const (
	DefaultBaseURL  = "https://www.strava.com/api/v3"
	DefaultOAuthURL = "https://www.strava.com/oauth"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Context carries the credentials for a single API call.
type Context struct {
	AccessToken AccessToken
}

// Client talks to the Strava API. It holds only transport configuration;
// credentials are passed in on every call, so a Client is safe for
// concurrent use.
type Client struct {
	baseURL  string
	oauthURL string
	client   *http.Client
	log      logrus.FieldLogger
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithOAuthURL(url string) Option {
	return func(c *Client) {
		c.oauthURL = url
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		oauthURL: DefaultOAuthURL,
		client:   http.DefaultClient,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues an authenticated GET for path. The caller must close the
// response body.
func (c *Client) Get(ctx context.Context, path string, auth Context) (*http.Response, error) {
	req, err := c.request(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", auth.AccessToken))
	return c.do(ctx, "get", req)
}

// GetPaginated is like Get but appends the pagination query to the request.
func (c *Client) GetPaginated(ctx context.Context, path string, auth Context, pagination Pagination) (*http.Response, error) {
	req, err := c.request(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = pagination.Encode()
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", auth.AccessToken))
	return c.do(ctx, "get", req)
}

func (c *Client) getJSON(ctx context.Context, op, path string, auth Context, output interface{}) error {
	resp, err := c.Get(ctx, path, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(op, resp.Body, output)
}

func (c *Client) getPaginatedJSON(ctx context.Context, op, path string, auth Context, pagination Pagination, output interface{}) error {
	resp, err := c.GetPaginated(ctx, path, auth, pagination)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(op, resp.Body, output)
}

// postJSON encodes body as JSON and posts it to url. The response is decoded
// into output unless output is nil.
func (c *Client) postJSON(ctx context.Context, op, url string, body, output interface{}) error {
	buffer := &bytes.Buffer{}
	if err := json.NewEncoder(buffer).Encode(body); err != nil {
		return errors.Wrap(err, "could not json encode body")
	}

	req, err := c.request(ctx, http.MethodPost, url, buffer)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if output == nil {
		return nil
	}
	return decode(op, resp.Body, output)
}

func (c *Client) request(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare request")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	log := c.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.Redacted(),
	})

	resp, err := ctxhttp.Do(ctx, c.client, req)
	if err != nil {
		log.WithError(err).Debug("strava request failed")
		return nil, &TransportError{Op: op, URL: req.URL.Redacted(), Err: err}
	}
	log.WithField("status", resp.StatusCode).Debug("strava request")

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &TransportError{
			Op:         op,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return resp, nil
}

func decode(op string, r io.Reader, output interface{}) error {
	if err := json.NewDecoder(r).Decode(output); err != nil {
		return &DeserializationError{Op: op, Err: err}
	}
	return nil
}
