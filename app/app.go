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

// Package app is the caller-facing client of a Knack application. It resolves
// containers by key or name, fetches and caches their records, normalizes them
// and exports them as CSV, SQLite or downloaded files.
//
// An App is not safe for concurrent use: the record cache is modified by Get
// and SetData without locking.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/fields"
	"github.com/stockparfait/knack/knack"
	"github.com/stockparfait/knack/records"
	"github.com/stockparfait/knack/tz"
	"github.com/stockparfait/logging"
)

type options struct {
	meta *knack.Application
	http *http.Client
}

// Option of New.
type Option func(*options)

// WithMetadata uses the given application metadata instead of fetching it.
func WithMetadata(meta *knack.Application) Option {
	return func(o *options) { o.meta = meta }
}

// WithHTTPClient sets the base HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// cacheEntry is the result of the last fetch of a container.
type cacheEntry struct {
	filters *knack.Filters
	limit   int
	raws    []knack.RawRecord
}

// App is a client of a single Knack application.
type App struct {
	client   *knack.Client
	meta     *knack.Application
	index    *Index
	registry *fields.Registry
	loc      *time.Location
	cache    map[string]*cacheEntry // by container key
}

// New creates an App, fetching the application metadata unless supplied with
// WithMetadata.
func New(ctx context.Context, cfg *knack.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	client, err := knack.NewClient(cfg, o.http)
	if err != nil {
		return nil, err
	}
	meta := o.meta
	if meta == nil {
		if meta, err = client.FetchMetadata(ctx); err != nil {
			return nil, err
		}
	}
	registry, err := fields.NewRegistry(meta)
	if err != nil {
		return nil, errors.Annotate(err, "invalid field metadata")
	}
	loc, err := timezone(ctx, cfg, meta)
	if err != nil {
		return nil, err
	}
	return &App{
		client:   client,
		meta:     meta,
		index:    NewIndex(meta),
		registry: registry,
		loc:      loc,
		cache:    make(map[string]*cacheEntry),
	}, nil
}

// timezone of the application: the configured override, or the application
// setting, or UTC if neither is set.
func timezone(ctx context.Context, cfg *knack.Config, meta *knack.Application) (*time.Location, error) {
	name := cfg.Timezone
	if name == "" {
		name = meta.Settings.Timezone
	}
	if name == "" {
		logging.Warningf(ctx, "application %s has no timezone setting, using UTC", meta.Name)
		return time.UTC, nil
	}
	loc, err := tz.Resolve(name)
	if err != nil {
		return nil, errors.Annotate(err, "set the timezone in the config to override it")
	}
	return loc, nil
}

// Client is the underlying API client.
func (a *App) Client() *knack.Client {
	return a.client
}

// Metadata of the application.
func (a *App) Metadata() *knack.Application {
	return a.meta
}

// Index of the application's containers.
func (a *App) Index() *Index {
	return a.index
}

// Fields registry of the application.
func (a *App) Fields() *fields.Registry {
	return a.registry
}

// Location is the application's timezone.
func (a *App) Location() *time.Location {
	return a.loc
}

// container resolves the name. An empty name refers to the only cached
// container, if there is exactly one.
func (a *App) container(name string) (Container, error) {
	if name == "" {
		if len(a.cache) != 1 {
			return Container{}, &knack.ConfigError{
				Reason: "container name is required unless exactly one container is cached"}
		}
		for k := range a.cache {
			name = k
		}
	}
	r := a.index.Resolve(name)
	if err := r.Err(); err != nil {
		return Container{}, err
	}
	return r.Container(), nil
}

// GetOptions control fetching and caching of records.
type GetOptions struct {
	Filters     *knack.Filters
	RecordLimit int  // 0 = no limit
	Refresh     bool // bypass the cache
}

// raws returns the raw records of the container, from the cache when it holds
// the result of the same query.
func (a *App) raws(ctx context.Context, c Container, opts GetOptions) ([]knack.RawRecord, error) {
	key := c.Key()
	if e, ok := a.cache[key]; ok && !opts.Refresh &&
		e.filters.Equal(opts.Filters) && e.limit == opts.RecordLimit {
		logging.Debugf(ctx, "using %d cached records of %s", len(e.raws), key)
		return e.raws, nil
	}
	q := c.Query().Filters(opts.Filters).Limit(opts.RecordLimit)
	raws, err := a.client.Fetch(ctx, q)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch records of %s", c)
	}
	a.cache[key] = &cacheEntry{filters: opts.Filters, limit: opts.RecordLimit, raws: raws}
	return raws, nil
}

// Iterate over the records of the named container, fetching them if needed.
// Records are normalized lazily.
func (a *App) Iterate(ctx context.Context, name string, opts GetOptions) (*records.Iterator, error) {
	c, err := a.container(name)
	if err != nil {
		return nil, err
	}
	raws, err := a.raws(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	return records.NewIterator(raws, a.registry.ForContainer(c.Key()), a.loc), nil
}

// Get all the records of the named container, fetching them if needed.
func (a *App) Get(ctx context.Context, name string, opts GetOptions) ([]*records.Record, error) {
	it, err := a.Iterate(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	return it.All()
}

// SetData loads raw records of the named container into the cache, as if
// fetched without filters or limit.
func (a *App) SetData(name string, raws []knack.RawRecord) error {
	r := a.index.Resolve(name)
	if err := r.Err(); err != nil {
		return err
	}
	a.cache[r.Container().Key()] = &cacheEntry{raws: raws}
	return nil
}

// objectKey resolves the name of an object. Views are rejected, as records can
// be modified through objects only.
func (a *App) objectKey(name string) (string, error) {
	r := a.index.Resolve(name)
	if err := r.Err(); err != nil {
		return "", err
	}
	c := r.Container()
	if c.IsView() {
		return "", &knack.ConfigError{Reason: c.String() + " is not an object"}
	}
	return c.Object, nil
}

// Create a record in the named object.
func (a *App) Create(ctx context.Context, object string, data map[string]any) (map[string]any, error) {
	key, err := a.objectKey(object)
	if err != nil {
		return nil, err
	}
	return a.client.Create(ctx, key, data)
}

// Update a record of the named object.
func (a *App) Update(ctx context.Context, object, id string, data map[string]any) (map[string]any, error) {
	key, err := a.objectKey(object)
	if err != nil {
		return nil, err
	}
	return a.client.Update(ctx, key, id, data)
}

// Delete a record of the named object.
func (a *App) Delete(ctx context.Context, object, id string) (map[string]any, error) {
	key, err := a.objectKey(object)
	if err != nil {
		return nil, err
	}
	return a.client.Delete(ctx, key, id)
}

// Upload an asset into a field of a new or existing record of the named
// object. The request's Object is resolved like any container name.
func (a *App) Upload(ctx context.Context, r knack.UploadRequest) (map[string]any, error) {
	key, err := a.objectKey(r.Object)
	if err != nil {
		return nil, err
	}
	r.Object = key
	return a.client.Upload(ctx, r)
}
