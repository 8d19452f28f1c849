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

package fields

import (
	"fmt"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/knack/tz"
)

// formatter humanizes a non-nil raw value of a specific field type. Values of
// an unexpected shape are an error, as they indicate a change of the
// platform's data format.
type formatter interface {
	format(raw any, loc *time.Location) (any, error)
}

func formatterFor(t Type) formatter {
	switch t {
	case Address:
		return addressFormatter{}
	case Connection:
		return connectionFormatter{}
	case Date, DateTime:
		return dateFormatter{}
	case Email:
		return keyFormatter{key: "email", lenient: true}
	case File, Image:
		return assetFormatter{}
	case Link:
		return keyFormatter{key: "url"}
	case Phone:
		return keyFormatter{key: "full"}
	case Signature:
		return keyFormatter{key: "base30"}
	case Timer:
		return timerFormatter{}
	}
	return defaultFormatter{}
}

func asMap(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Reason("expected a mapping, got %T: %v", raw, raw)
	}
	return m, nil
}

// defaultFormatter passes the value through; an empty string becomes nil.
type defaultFormatter struct{}

func (defaultFormatter) format(raw any, _ *time.Location) (any, error) {
	if s, ok := raw.(string); ok && s == "" {
		return nil, nil
	}
	return raw, nil
}

// keyFormatter extracts a string attribute of a mapping. A missing attribute
// is nil. When lenient, any malformed value is nil rather than an error.
type keyFormatter struct {
	key     string
	lenient bool
}

func (f keyFormatter) format(raw any, _ *time.Location) (any, error) {
	m, err := asMap(raw)
	if err != nil {
		if f.lenient {
			return nil, nil
		}
		return nil, err
	}
	v, ok := m[f.key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		if f.lenient {
			return nil, nil
		}
		return nil, errors.Reason("'%s' is not a string: %v", f.key, v)
	}
	return s, nil
}

// assetFormatter extracts the URL of a file or an image, which is either a
// mapping or a bare URL string.
type assetFormatter struct{}

func (assetFormatter) format(raw any, loc *time.Location) (any, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return keyFormatter{key: "url"}.format(raw, loc)
}

// dateFormatter renders the (already corrected) timestamp in ISO format.
type dateFormatter struct{}

func (dateFormatter) format(raw any, loc *time.Location) (any, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	ms, ok := Timestamp(m)
	if !ok {
		return nil, errors.Reason("no unix_timestamp in %v", raw)
	}
	return tz.FormatISO(ms, loc), nil
}

// Timestamp extracts the millisecond timestamp from a date value.
func Timestamp(m map[string]any) (int64, bool) {
	switch v := m["unix_timestamp"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// connectionFormatter joins the identifiers of the connected records.
type connectionFormatter struct{}

func (connectionFormatter) format(raw any, _ *time.Location) (any, error) {
	l, ok := raw.([]any)
	if !ok {
		return nil, errors.Reason("expected a list of connections, got %T: %v", raw, raw)
	}
	if len(l) == 0 {
		return nil, nil
	}
	ids := make([]string, len(l))
	for i, c := range l {
		m, err := asMap(c)
		if err != nil {
			return nil, errors.Annotate(err, "bad connection [%d]", i)
		}
		id, ok := m["identifier"]
		if !ok {
			return nil, errors.Reason("connection [%d] has no identifier", i)
		}
		ids[i] = fmt.Sprint(id)
	}
	return strings.Join(ids, ", "), nil
}

var timerReplacer = strings.NewReplacer("<span>", "", "</span>", "", "&nbsp;", "; ")

// timerFormatter cleans up the platform-rendered timer string, e.g.
// "<span>09/11/19</span>&nbsp;4:14pm to 5:14pm = 1:00 hours".
type timerFormatter struct{}

func (timerFormatter) format(raw any, _ *time.Location) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, errors.Reason("expected a timer string, got %T: %v", raw, raw)
	}
	return timerReplacer.Replace(s), nil
}

var addressParts = []string{"street", "street2", "city", "state", "zip", "country"}

// addressFormatter joins the non-empty address parts, without the coordinates.
type addressFormatter struct{}

func (addressFormatter) format(raw any, _ *time.Location) (any, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, k := range addressParts {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s := fmt.Sprint(v); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return strings.Join(parts, ", "), nil
}
