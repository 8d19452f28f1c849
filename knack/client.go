// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package knack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RawRecord is a record as decoded from the API response.
type RawRecord = map[string]any

const (
	appIDHeader  = "X-Knack-Application-Id"
	apiKeyHeader = "X-Knack-REST-API-Key"
)

// authTransport adds the credential headers to the requests sent to the API
// host only.
type authTransport struct {
	base   http.RoundTripper
	host   string
	appID  string
	apiKey string
}

var _ http.RoundTripper = &authTransport{}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.host {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(appIDHeader, t.appID)
	r.Header.Set(apiKeyHeader, t.apiKey)
	return t.base.RoundTrip(r)
}

// Client of the Knack REST API. It is safe for concurrent use, though the
// methods themselves are sequential.
type Client struct {
	config  Config
	baseURL string
	http    *http.Client
	pause   *distuv.Uniform // nil when retry pauses are disabled
}

// NewClient creates a Client for the configured application. A nil hc uses a
// new http.Client with the default transport. The client's timeout is always
// set from cfg.
func NewClient(cfg *Config, hc *http.Client) (*Client, error) {
	if cfg == nil {
		return nil, configErrorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.URL())
	if err != nil {
		return nil, errors.Annotate(err, "invalid base URL '%s'", cfg.URL())
	}
	var h http.Client
	if hc != nil {
		h = *hc
	}
	rt := h.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = PublicAPIKey
	}
	h.Transport = &authTransport{
		base:   rt,
		host:   base.Host,
		appID:  cfg.AppID,
		apiKey: apiKey,
	}
	h.Timeout = cfg.TimeoutDuration()
	c := &Client{
		config:  *cfg,
		baseURL: cfg.URL(),
		http:    &h,
	}
	if cfg.MaxPause > 0 {
		c.pause = &distuv.Uniform{
			Min: cfg.MinPause,
			Max: cfg.MaxPause,
			Src: rand.NewSource(uint64(time.Now().UnixNano())),
		}
	}
	return c, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// URL of the API route.
func (c *Client) URL(route string) string {
	return c.baseURL + route
}

// HTTPClient is the underlying client, with credentials and timeout set.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// ObjectRoute is the API route of an object's records, or of a single record
// when id is not empty.
func ObjectRoute(object, id string) string {
	r := "/objects/" + url.PathEscape(object) + "/records"
	if id != "" {
		r += "/" + url.PathEscape(id)
	}
	return r
}

// ViewRoute is the API route of a view's records.
func ViewRoute(scene, view string) string {
	return "/pages/" + url.PathEscape(scene) + "/views/" + url.PathEscape(view) +
		"/records"
}

// AppRoute is the API route of the application metadata.
func AppRoute(appID string) string {
	return "/applications/" + url.PathEscape(appID)
}

// AssetRoute is the API route for uploading an asset of the given type.
func AssetRoute(appID, assetType string) string {
	return AppRoute(appID) + "/assets/" + url.PathEscape(assetType) + "/upload"
}

// send executes the request and returns the response body. A response status
// other than 2xx yields *HTTPError. Transport errors are returned as is, so
// the caller may check them for timeouts.
func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return body, nil
}

// doJSON sends a single request with an optional JSON payload and decodes the
// JSON response into out. It is never retried.
func (c *Client) doJSON(ctx context.Context, method, uri string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Annotate(err, "failed to encode request payload")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return errors.Annotate(err, "failed to create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	logging.Debugf(ctx, "%s %s", method, uri)
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return errors.Annotate(err, "failed to decode response of %s %s", method, uri)
	}
	return nil
}

// sleep pauses for a random duration before retrying a request, or until ctx
// is done.
func (c *Client) sleep(ctx context.Context) {
	if c.pause == nil {
		return
	}
	d := time.Duration(c.pause.Rand() * float64(time.Second))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
