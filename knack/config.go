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
	"fmt"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/message"
)

// MaxRowsPerPage is the largest page size the API accepts.
const MaxRowsPerPage = 1000

// PublicAPIKey replaces the API key when accessing public views.
const PublicAPIKey = "knack"

// ConfigError is a configuration problem: missing or conflicting identifiers,
// or out of range parameters. It is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Config of the API client.
type Config struct {
	AppID   string `json:"app_id"`
	APIKey  string `json:"api_key"` // empty for public views only
	Slug    string `json:"slug"`    // account subdomain prefix, if any
	BaseURL string `json:"base_url"`
	// Timezone overrides the application's timezone setting; either an IANA
	// name or the platform's display name.
	Timezone    string  `json:"timezone"`
	Timeout     float64 `json:"timeout" default:"30"` // per request, seconds
	MaxAttempts int     `json:"max_attempts" default:"5"`
	RowsPerPage int     `json:"rows_per_page" default:"1000"`
	// Random pause between retries, seconds. MaxPause = 0 disables it.
	MinPause float64 `json:"min_pause" default:"0.3"`
	MaxPause float64 `json:"max_pause" default:"0.9"`
}

var _ message.Message = &Config{}

// InitMessage implements message.Message.
func (c *Config) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init from JSON")
	}
	return c.Validate()
}

// NewConfig creates a Config from a generic JSON or TOML value.
func NewConfig(js any) (*Config, error) {
	var c Config
	if err := c.InitMessage(js); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate the configuration values.
func (c *Config) Validate() error {
	switch {
	case c.AppID == "":
		return configErrorf("app_id is required")
	case c.Timeout <= 0:
		return configErrorf("timeout = %g must be > 0", c.Timeout)
	case c.MaxAttempts < 1:
		return configErrorf("max_attempts = %d must be >= 1", c.MaxAttempts)
	case c.RowsPerPage < 1 || c.RowsPerPage > MaxRowsPerPage:
		return configErrorf("rows_per_page = %d must be in [1..%d]",
			c.RowsPerPage, MaxRowsPerPage)
	case c.MinPause < 0 || c.MaxPause < c.MinPause:
		return configErrorf("pause range [%g..%g] is invalid", c.MinPause, c.MaxPause)
	}
	return nil
}

// TimeoutDuration is the per request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// URL returns the base API URL, honoring the account slug.
func (c *Config) URL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Slug != "" {
		return "https://" + c.Slug + "-api.knack.com/v1"
	}
	return "https://api.knack.com/v1"
}
