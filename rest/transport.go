package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// maxErrorBody bounds how much of an error response body is retained for
// diagnostics.
const maxErrorBody = 1 << 10

// apiURL builds a service URL under the /api/ prefix. Endpoint paths carry a
// trailing slash, and every API request announces itself as a native client.
func (c *Client) apiURL(path string, query url.Values) string {
	q := url.Values{"native": {"true"}}
	for k, vs := range query {
		q[k] = vs
	}
	u := url.URL{
		Scheme:   c.scheme,
		Host:     c.host,
		Path:     "/api/" + strings.Trim(path, "/") + "/",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// rootURL builds a service URL outside the /api/ prefix.
func (c *Client) rootURL(path string) string {
	u := url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   "/" + strings.Trim(path, "/"),
	}
	return u.String()
}

// roundTrip issues one request and returns the response, enforcing the
// status check and recording logs and metrics. The caller owns the response
// body.
func (c *Client) roundTrip(ctx context.Context, op, method, rawURL string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		c.metrics.Request(op, true)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	entry := c.log.WithFields(logrus.Fields{
		"operation":  op,
		"method":     method,
		"url":        rawURL,
		"request_id": requestID,
	})
	entry.Debug("request")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Request(op, true)
		entry.WithError(err).Warn("request failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.metrics.Request(op, true)
		entry.WithField("status", resp.StatusCode).Warn("request rejected")
		return nil, &StatusError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	c.metrics.Request(op, false)
	entry.WithField("status", resp.StatusCode).Debug("response")
	return resp, nil
}

// do issues a request against the /api/ prefix and decodes the JSON response
// into out. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, query, form url.Values, out any) error {
	resp, err := c.roundTrip(ctx, op, method, c.apiURL(path, query), form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// stream issues a request outside the /api/ prefix and returns the raw
// response body. The caller must close it.
func (c *Client) stream(ctx context.Context, op, path string) (io.ReadCloser, error) {
	resp, err := c.roundTrip(ctx, op, http.MethodGet, c.rootURL(path), nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
