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
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// page is the response format of a page of records.
type page struct {
	TotalPages   *int        `json:"total_pages"`
	TotalRecords *int        `json:"total_records"`
	Records      []RawRecord `json:"records"`
}

// getPage sends one page request.
func (c *Client) getPage(ctx context.Context, uri string, query url.Values) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create request")
	}
	logging.Debugf(ctx, "GET %s", req.URL.String())
	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Annotate(err, "failed to decode page from %s", uri)
	}
	return &p, nil
}

// fetchPage requests page n, retrying on timeouts up to the configured number
// of attempts.
func (c *Client) fetchPage(ctx context.Context, uri string, query url.Values, n int) (*page, error) {
	for attempt := 1; ; attempt++ {
		p, err := c.getPage(ctx, uri, query)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil || !isTimeout(err) {
			return nil, err
		}
		if attempt >= c.config.MaxAttempts {
			return nil, &TimeoutError{URL: uri, Page: n, Attempts: attempt, Err: err}
		}
		logging.Warningf(ctx, "page %d of %s timed out on attempt %d, retrying",
			n, uri, attempt)
		c.sleep(ctx)
	}
}

// Fetch all the records matching the query, subject to its limit. Pages are
// requested sequentially until the limit or the total reported by the server
// is reached, or the server returns an empty page.
func (c *Client) Fetch(ctx context.Context, q *Query) ([]RawRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	perPage := c.config.RowsPerPage
	if q.limit > 0 && q.limit < perPage {
		perPage = q.limit
	}
	query := url.Values{}
	query.Set("rows_per_page", strconv.Itoa(perPage))
	if q.filters != nil {
		query.Set("filters", q.filters.String())
	}
	uri := c.URL(q.Route())
	records := []RawRecord{}
	for n := 1; ; n++ {
		query.Set("page", strconv.Itoa(n))
		p, err := c.fetchPage(ctx, uri, query, n)
		if err != nil {
			return nil, err
		}
		records = append(records, p.Records...)
		total := len(records) // a missing total ends the fetch
		if p.TotalRecords != nil {
			total = *p.TotalRecords
		}
		logging.Infof(ctx, "fetched page %d with %d records (%d of %d)",
			n, len(p.Records), len(records), total)
		if len(p.Records) == 0 || len(records) >= total {
			break
		}
		if q.limit > 0 && len(records) >= q.limit {
			break
		}
	}
	if q.limit > 0 && len(records) > q.limit {
		records = records[:q.limit]
	}
	return records, nil
}
